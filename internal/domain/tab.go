package domain

import "fmt"

type Tab string

const (
	Tab_Overview    Tab = "overview"
	Tab_SingleAsset Tab = "single-asset"
	Tab_Portfolio   Tab = "portfolio"
)

func NewTab(s string) (Tab, error) {
	switch t := Tab(s); t {
	case Tab_Overview, Tab_SingleAsset, Tab_Portfolio:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTab, s)
}
