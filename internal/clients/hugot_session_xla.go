//go:build XLA

package clients

import "github.com/knights-analytics/hugot"

func newHugotSession(_ HugotOptions) (*hugot.Session, error) {
	return hugot.NewXLASession()
}
