//go:build !amd64 && !arm64

package hls

func init() {
	setScalarMode()
}
