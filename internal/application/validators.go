package application

import (
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ValidateUnitParameters validates the parameters for a specific unit type,
// ensuring values meet domain constraints before the unit factory runs.
// ValidateUnitParameters supports ballot_rank, pairwise, schulze,
// condorcet_ranker, and custom unit types with type-specific rules.
// ValidateUnitParameters returns an error if parameter decoding fails
// or if any validation rule is violated.
func ValidateUnitParameters(unitType string, params yaml.Node) error {
	var paramMap map[string]any
	if err := params.Decode(&paramMap); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}

	switch unitType {
	case "ballot_rank":
		return validateBallotRankParams(paramMap)
	case "pairwise":
		return validatePairwiseParams(paramMap)
	case "schulze":
		return validateSchulzeParams(paramMap)
	case "condorcet_ranker":
		return validateRankerParams(paramMap)
	case "custom":
		// Custom units have flexible validation.
		return nil
	default:
		return fmt.Errorf("unknown unit type: %s", unitType)
	}
}

// validateBallotRankParams validates parameters for ballot rank units.
func validateBallotRankParams(params map[string]any) error {
	if foldCase, ok := params["fold_case"]; ok {
		if _, ok := foldCase.(bool); !ok {
			return fmt.Errorf("fold_case must be a boolean")
		}
	}
	if requireComplete, ok := params["require_complete"]; ok {
		if _, ok := requireComplete.(bool); !ok {
			return fmt.Errorf("require_complete must be a boolean")
		}
	}
	return nil
}

// validatePairwiseParams validates parameters for pairwise units, which
// currently take no parameters.
func validatePairwiseParams(params map[string]any) error {
	if len(params) > 0 {
		return fmt.Errorf("pairwise units take no parameters")
	}
	return nil
}

// validateSchulzeParams validates parameters for schulze units.
func validateSchulzeParams(params map[string]any) error {
	if maxCandidates, ok := params["max_candidates"]; ok {
		switch v := maxCandidates.(type) {
		case int:
			if v < 0 {
				return fmt.Errorf("max_candidates cannot be negative")
			}
		case float64:
			if v < 0 {
				return fmt.Errorf("max_candidates cannot be negative")
			}
		default:
			return fmt.Errorf("max_candidates must be a number")
		}
	}
	return nil
}

// validateRankerParams validates parameters for condorcet ranker units,
// ensuring the tie-break strategy is one the engine supports.
func validateRankerParams(params map[string]any) error {
	if tieBreak, ok := params["tie_break"]; ok {
		tieBreakStr, ok := tieBreak.(string)
		if !ok {
			return fmt.Errorf("tie_break must be a string")
		}
		validStrategies := []string{"error", "first", "lexicographic"}
		if !slices.Contains(validStrategies, tieBreakStr) {
			return fmt.Errorf("invalid tie_break strategy: %s", tieBreakStr)
		}
	}
	if maxCandidates, ok := params["max_candidates"]; ok {
		switch v := maxCandidates.(type) {
		case int:
			if v < 0 {
				return fmt.Errorf("max_candidates cannot be negative")
			}
		case float64:
			if v < 0 {
				return fmt.Errorf("max_candidates cannot be negative")
			}
		default:
			return fmt.Errorf("max_candidates must be a number")
		}
	}
	return nil
}

// registerCustomValidators registers domain-specific validation functions
// with the validator instance, including semantic version validation.
// registerCustomValidators returns an error if any registration fails.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}

	return nil
}

// validateSemver validates that a string follows semantic versioning
// format (X.Y.Z where X, Y, Z are non-negative integers).
// validateSemver is a validator.Func that can be registered with
// the validator instance for use in struct tags.
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	return err == nil && n == 3
}
