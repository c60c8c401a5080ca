package entityprop

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// SaveProperty declares p on entityTypeID, replacing a declaration of the
// same name, and rebuilds the entity type.
func (s *Service) SaveProperty(ctx context.Context, entityTypeID string, p types.Property) error {
	return s.SaveProperties(ctx, entityTypeID, []types.Property{p})
}

// SaveProperties declares every property in ps and rebuilds the entity
// type once.
// Every name is checked before anything is written, so a rejected batch
// leaves the store untouched.
func (s *Service) SaveProperties(ctx context.Context, entityTypeID string, ps []types.Property) error {
	et, err := s.entityTypes.Definition(entityTypeID)
	if err != nil {
		return err
	}
	declared, err := s.declaredNames(entityTypeID)
	if err != nil {
		return err
	}
	for _, p := range ps {
		if _, err := s.fieldTypes.Definition(p.Type); err != nil {
			return err
		}
		if err := types.ValidateMachineName(p.Name); err != nil {
			return err
		}
		if err := nameConflict(et, p.Name, declared); err != nil {
			return err
		}
		declared = append(declared, p.Name)
	}

	for _, p := range ps {
		p.Normalize(s.defaultTarget)
		if err := s.store.SetProperty(entityTypeID, p); err != nil {
			return fmt.Errorf("saving property %s.%s: %w", entityTypeID, p.Name, err)
		}
	}
	_, err = s.RebuildEntityType(ctx, entityTypeID)
	return err
}

// DeleteProperty removes a declaration and uninstalls its storage field.
// It refuses with ErrHasData while storage holds values for the field.
func (s *Service) DeleteProperty(ctx context.Context, entityTypeID, name string) (*types.Property, error) {
	if _, err := s.entityTypes.Definition(entityTypeID); err != nil {
		return nil, err
	}
	p, err := s.store.Property(entityTypeID, name)
	if err != nil {
		return nil, err
	}
	hasData, err := s.HasData(ctx, entityTypeID, name)
	if err != nil {
		return nil, err
	}
	if hasData {
		return nil, fmt.Errorf("%w: %s.%s", types.ErrHasData, entityTypeID, name)
	}

	if err := s.store.ClearProperty(entityTypeID, name); err != nil {
		return nil, err
	}
	installed, err := s.storage.GetFieldStorageDefinition(ctx, entityTypeID, name)
	if err != nil {
		return nil, err
	}
	if installed != nil {
		if err := s.storage.UninstallFieldStorageDefinition(ctx, *installed); err != nil {
			return nil, fmt.Errorf("uninstalling %s.%s: %w", entityTypeID, name, err)
		}
	}
	s.logger.Printf("entity type %s: deleted property %s", entityTypeID, name)

	if _, err := s.RebuildEntityType(ctx, entityTypeID); err != nil {
		return nil, err
	}
	return p, nil
}

// CheckPropertyName reports ErrNameReserved when declaring name on
// entityTypeID would collide with a base field or with the storage columns
// of another declared property. Redeclaring an existing name is allowed.
func (s *Service) CheckPropertyName(entityTypeID, name string) error {
	et, err := s.entityTypes.Definition(entityTypeID)
	if err != nil {
		return err
	}
	declared, err := s.declaredNames(entityTypeID)
	if err != nil {
		return err
	}
	return nameConflict(et, name, declared)
}

func (s *Service) declaredNames(entityTypeID string) ([]string, error) {
	props, err := s.store.Properties(entityTypeID)
	if err != nil {
		return nil, fmt.Errorf("reading properties of %s: %w", entityTypeID, err)
	}
	names := make([]string, 0, len(props))
	for _, p := range props {
		names = append(names, p.Name)
	}
	return names, nil
}

// nameConflict checks name against the base fields of et and the declared
// names. Multi-column fields store "<name>__<column>", so a name may not
// extend another declared name past "__" and no declared name may extend it.
func nameConflict(et types.EntityType, name string, declared []string) error {
	for _, bf := range et.BaseFields {
		if bf.Name == name {
			return fmt.Errorf("%w: %s is a base field of %s", types.ErrNameReserved, name, et.ID)
		}
	}
	for _, other := range declared {
		if other == name {
			continue
		}
		if strings.HasPrefix(name, other+"__") || strings.HasPrefix(other, name+"__") {
			return fmt.Errorf("%w: %s and %s.%s share a column prefix", types.ErrNameReserved, name, et.ID, other)
		}
	}
	return nil
}
