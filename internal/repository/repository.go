package repository

import (
	"errors"

	"ebook_checkout/internal/domain"
)

var ErrNotFound = errors.New("not found")

type TxFilter struct {
	Reference string
	Phone     string
	Status    domain.TxStatus
}

func (f TxFilter) match(t *domain.Transaction) bool {
	if f.Reference != "" && t.Reference != f.Reference {
		return false
	}
	if f.Phone != "" && t.Phone != f.Phone {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	return true
}
