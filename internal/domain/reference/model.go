package reference

import (
	"context"
	"errors"
)

var ErrUnknownKind = errors.New("unknown reference kind")

type Kind string

const (
	KindTypeOfBuyer        Kind = "type-of-buyer"
	KindProcurementPurpose Kind = "procurement-purpose"
	KindEndUserType        Kind = "end-user-type"
)

func ParseKind(v string) (Kind, error) {
	switch Kind(v) {
	case KindTypeOfBuyer, KindProcurementPurpose, KindEndUserType:
		return Kind(v), nil
	default:
		return "", ErrUnknownKind
	}
}

type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Country is one entry of the country dropdowns.
type Country struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Flag string `json:"flag,omitempty"`
}

type Repository interface {
	ListByKind(ctx context.Context, kind Kind) ([]Item, error)
}
