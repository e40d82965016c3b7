// internal/deck/deck.go
//
// Deck generation for the memory board.
// Responsibilities:
//   - Validate board dimensions against the card-face pool (fail fast).
//   - Draw distinct card identifiers and add each one twice.
//   - Shuffle the paired sequence with an unbiased Fisher–Yates pass.
//
// Notes:
//   - A deck of length 2×pairCount holds pairCount distinct identifiers in
//     [0, poolSize), each exactly twice.
//   - The draw loop rejects duplicates, so it only terminates when
//     poolSize ≥ pairCount. New refuses to start otherwise.
package deck

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	// ErrBadBoard reports non-positive or odd board dimensions.
	ErrBadBoard = errors.New("board must have positive dimensions and an even number of cases")
	// ErrPoolTooSmall reports a face pool that cannot supply enough pairs.
	ErrPoolTooSmall = errors.New("card pool smaller than pair count")
)

// Validate checks a rows×cols board against a pool of poolSize faces.
func Validate(rows, cols, poolSize int) error {
	if rows <= 0 || cols <= 0 || (rows*cols)%2 != 0 {
		return fmt.Errorf("%dx%d: %w", rows, cols, ErrBadBoard)
	}
	if pairs := rows * cols / 2; pairs > poolSize {
		return fmt.Errorf("%d pairs from %d faces: %w", pairs, poolSize, ErrPoolTooSmall)
	}
	return nil
}

// New returns a shuffled deck of pairCount pairs drawn from [0, poolSize).
func New(pairCount, poolSize int, rng *rand.Rand) ([]int, error) {
	if pairCount < 0 {
		return nil, fmt.Errorf("negative pair count %d: %w", pairCount, ErrBadBoard)
	}
	if poolSize < pairCount {
		return nil, fmt.Errorf("%d pairs from %d faces: %w", pairCount, poolSize, ErrPoolTooSmall)
	}

	cards := make([]int, 0, 2*pairCount)
	drawn := make(map[int]struct{}, pairCount)
	for len(drawn) < pairCount {
		id := rng.Intn(poolSize)
		if _, dup := drawn[id]; dup {
			continue
		}
		drawn[id] = struct{}{}
		cards = append(cards, id, id)
	}

	Shuffle(cards, rng)
	return cards, nil
}

// Shuffle permutes cards in place. Walking index from len(cards) down to 1,
// the element at index-1 is swapped with one drawn uniformly from [0, index).
func Shuffle(cards []int, rng *rand.Rand) {
	for index := len(cards); index > 0; index-- {
		j := rng.Intn(index)
		cards[index-1], cards[j] = cards[j], cards[index-1]
	}
}
