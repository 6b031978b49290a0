package slides

import (
	"context"
	"fmt"
	"slices"

	"sportstore/internal/model"
	"sportstore/internal/storage"
)

// Move swaps the slide with its neighbour in the given direction by
// exchanging their order keys. When either key is shared with another
// slide, keys are raised instead until the wanted sequence is strictly
// increasing, so no other slide changes rank. An unknown id, or a move past
// either end, is a no-op. Callers re-list to see the new order.
func (m *Manager) Move(ctx context.Context, id string, dir Direction) error {
	slides, err := m.List(ctx)
	if err != nil {
		return err
	}

	i := -1
	for k, s := range slides {
		if s.ID == id {
			i = k
			break
		}
	}
	if i < 0 {
		m.logger.Debug("Move ignored, slide not found", "slideID", id)
		return nil
	}
	j := i - 1
	if dir == Later {
		j = i + 1
	}
	if j < 0 || j >= len(slides) {
		m.logger.Debug("Move ignored, slide already at the edge", "slideID", id, "direction", dir)
		return nil
	}

	moving, neighbour := slides[i], slides[j]
	var updates []storage.RowUpdate
	if exclusiveKeys(slides, moving.Order, neighbour.Order) {
		updates = []storage.RowUpdate{
			{ID: moving.ID, Fields: storage.Record{"order": neighbour.Order}},
			{ID: neighbour.ID, Fields: storage.Record{"order": moving.Order}},
		}
	} else {
		// Exchanging shared keys would leave the result to the tie
		// break, so the wanted sequence is given strictly increasing keys.
		wanted := slices.Clone(slides)
		wanted[i], wanted[j] = wanted[j], wanted[i]
		updates = respace(wanted)
		m.logger.Info("Respacing tied slide order keys", "slideID", id, "writes", len(updates))
	}

	if b, ok := m.store.(storage.Batcher); ok {
		if err := b.UpdateBatch(ctx, model.CollectionSlides, updates); err != nil {
			return fmt.Errorf("swap slides %s and %s: %w", moving.ID, neighbour.ID, err)
		}
		m.logger.Info("Moved slide", "slideID", id, "direction", dir, "neighbourID", neighbour.ID)
		return nil
	}

	for n, u := range updates {
		if err := m.store.Update(ctx, model.CollectionSlides, u.ID, u.Fields); err != nil {
			if n > 0 {
				// Earlier writes stay; keys may now collide until an
				// operator fixes them.
				m.logger.Error("Partial slide reorder", "slideID", moving.ID, "neighbourID", neighbour.ID, "failedID", u.ID, "written", n, "error", err)
			}
			return fmt.Errorf("update slide %s order: %w", u.ID, err)
		}
	}
	m.logger.Info("Moved slide", "slideID", id, "direction", dir, "neighbourID", neighbour.ID)
	return nil
}

// exclusiveKeys reports whether a and b differ and no other slide holds
// either of them, so exchanging them moves exactly two ranks.
func exclusiveKeys(slides []model.Slide, a, b int) bool {
	if a == b {
		return false
	}
	n := 0
	for _, s := range slides {
		if s.Order == a || s.Order == b {
			n++
		}
	}
	return n == 2
}

// respace returns the updates that make the keys of wanted strictly
// increasing, raising a key only where it does not already exceed its
// predecessor.
func respace(wanted []model.Slide) []storage.RowUpdate {
	var updates []storage.RowUpdate
	prev := 0
	for k, s := range wanted {
		key := s.Order
		if k > 0 && key <= prev {
			key = prev + 1
		}
		if key != s.Order {
			updates = append(updates, storage.RowUpdate{ID: s.ID, Fields: storage.Record{"order": key}})
		}
		prev = key
	}
	return updates
}
