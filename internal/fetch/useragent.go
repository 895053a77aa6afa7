package fetch

import "math/rand"

// Desktop browser user agents rotated across fetches to soften the request
// signature.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
}

// Window sizes rotated alongside the user agent for headless fetches.
var windowSizes = [][2]int{
	{1920, 1080},
	{1366, 768},
	{1440, 900},
	{1536, 864},
}

// RandomUserAgent picks one of the rotation set.
func RandomUserAgent(rng *rand.Rand) string {
	return userAgents[rng.Intn(len(userAgents))]
}

func randomWindowSize(rng *rand.Rand) (int, int) {
	size := windowSizes[rng.Intn(len(windowSizes))]
	return size[0], size[1]
}
