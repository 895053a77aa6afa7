package scan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlockDetector_DetectsChallengeMarkers(t *testing.T) {
	t.Parallel()

	d := NewBlockDetector(nil)
	require.True(t, d.Blocked([]byte("Our systems have detected unusual traffic from your network")))
	require.True(t, d.Blocked([]byte("<title>CAPTCHA required</title>")))
	require.True(t, d.Blocked([]byte("please complete this security check to continue")))
}

func TestBlockDetector_PassesNormalPages(t *testing.T) {
	t.Parallel()

	d := NewBlockDetector(nil)
	require.False(t, d.Blocked([]byte("<html><body>shopping results</body></html>")))
	require.False(t, d.Blocked(nil))
}

func TestBlockDetector_CustomMarkers(t *testing.T) {
	t.Parallel()

	d := NewBlockDetector([]string{"Access Denied", "  "})
	require.True(t, d.Blocked([]byte("ACCESS DENIED")))
	require.False(t, d.Blocked([]byte("unusual traffic")))
}

func TestBlockDetector_NilReceiver(t *testing.T) {
	t.Parallel()

	var d *BlockDetector
	require.False(t, d.Blocked([]byte("captcha")))
}
