//go:build !XLA

package clients

import (
	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
)

// newHugotSession runs on onnxruntime. Build with -tags XLA for the XLA runtime.
func newHugotSession(opts HugotOptions) (*hugot.Session, error) {
	var sessionOpts []options.WithOption
	if opts.OnnxLibraryPath != "" {
		sessionOpts = append(sessionOpts, options.WithOnnxLibraryPath(opts.OnnxLibraryPath))
	}
	return hugot.NewORTSession(sessionOpts...)
}
