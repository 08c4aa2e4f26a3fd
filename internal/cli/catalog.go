package cli

import (
	"context"
	"errors"

	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/aretw0/omnibot/pkg/ports"
)

// layeredCatalog asks each catalog in turn; the first hit wins.
type layeredCatalog []ports.WriteActionCatalog

var _ ports.WriteActionCatalog = layeredCatalog(nil)

func (l layeredCatalog) WriteAction(ctx context.Context, idOrName string) (*domain.WriteAction, error) {
	for _, c := range l {
		wa, err := c.WriteAction(ctx, idOrName)
		if err == nil {
			return wa, nil
		}
		if !errors.Is(err, domain.ErrWriteActionNotFound) {
			return nil, err
		}
	}
	return nil, domain.ErrWriteActionNotFound
}

// List merges the listable layers. Earlier layers shadow later ones with the same id.
func (l layeredCatalog) List() []domain.WriteAction {
	seen := make(map[string]bool)
	var out []domain.WriteAction
	for _, c := range l {
		lister, ok := c.(interface{ List() []domain.WriteAction })
		if !ok {
			continue
		}
		for _, wa := range lister.List() {
			if seen[wa.ID] {
				continue
			}
			seen[wa.ID] = true
			out = append(out, wa)
		}
	}
	return out
}
