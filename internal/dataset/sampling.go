package dataset

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/oceankit/shred/pkg/errors"
)

// SplitIndices holds disjoint window start positions for the three dataset
// roles. Validation and test are interleaved over the complement of the
// training set.
type SplitIndices struct {
	Train      []int `json:"train"`
	Validation []int `json:"validation"`
	Test       []int `json:"test"`
}

// SampleSensors chooses numSensors distinct column indices uniformly without
// replacement from [0, fieldDim).
func SampleSensors(fieldDim, numSensors int, rng *rand.Rand) ([]int, error) {
	if numSensors <= 0 || numSensors > fieldDim {
		return nil, errors.NewValidationError(errors.CodeInvalidInput,
			fmt.Sprintf("cannot choose %d sensors from %d columns", numSensors, fieldDim))
	}
	perm := rng.Perm(fieldDim)
	sensors := append([]int(nil), perm[:numSensors]...)
	sort.Ints(sensors)
	return sensors, nil
}

// SampleSplit partitions the numWindows valid start positions: numTrain are
// drawn uniformly without replacement for training, and the ordered complement
// alternates between validation and test.
func SampleSplit(numWindows, numTrain int, rng *rand.Rand) (*SplitIndices, error) {
	if numWindows <= 0 {
		return nil, errors.WrapError(errors.ErrEmptyDataset, errors.ErrorTypeValidation,
			errors.CodeEmptyDataset, "no valid window start positions")
	}
	if numTrain <= 0 || numTrain >= numWindows {
		return nil, errors.NewValidationError(errors.CodeInvalidInput,
			fmt.Sprintf("training size %d must be in (0, %d)", numTrain, numWindows))
	}

	perm := rng.Perm(numWindows)
	train := append([]int(nil), perm[:numTrain]...)
	sort.Ints(train)

	complement := append([]int(nil), perm[numTrain:]...)
	sort.Ints(complement)

	split := &SplitIndices{Train: train}
	for i, idx := range complement {
		if i%2 == 0 {
			split.Validation = append(split.Validation, idx)
		} else {
			split.Test = append(split.Test, idx)
		}
	}
	return split, nil
}

// Validate checks that the split covers only valid positions and that no
// index appears in more than one role.
func (s *SplitIndices) Validate(numWindows int) error {
	seen := make(map[int]string, len(s.Train)+len(s.Validation)+len(s.Test))
	for role, indices := range map[string][]int{
		"train":      s.Train,
		"validation": s.Validation,
		"test":       s.Test,
	} {
		for _, idx := range indices {
			if idx < 0 || idx >= numWindows {
				return errors.NewValidationError(errors.CodeIndexOutOfRange,
					fmt.Sprintf("%s index %d outside [0, %d)", role, idx, numWindows))
			}
			if prev, ok := seen[idx]; ok {
				return errors.WrapError(errors.ErrSplitOverlap, errors.ErrorTypeValidation,
					errors.CodeSplitOverlap,
					fmt.Sprintf("index %d appears in both %s and %s", idx, prev, role))
			}
			seen[idx] = role
		}
	}
	return nil
}
