package attributes

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xvmnet/xvmd/domain/addressformat"
	"github.com/xvmnet/xvmd/domain/model"
	"github.com/xvmnet/xvmd/domain/ruleerrors"
)

// normalizeValue validates value against the type of key and returns its
// canonical string form.
func normalizeValue(key string, spec keySpec, value string) (string, error) {
	value = strings.TrimSpace(value)
	switch spec.valueType {
	case typeBool:
		switch strings.ToLower(value) {
		case "true":
			return "true", nil
		case "false":
			return "false", nil
		}
		return "", ruleerrors.Errorf(ruleerrors.ErrInvalidAttribute, "%s: %q is not a boolean", key, value)

	case typeUint64:
		parsed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return "", ruleerrors.Errorf(ruleerrors.ErrInvalidAttribute, "%s: %q is not an unsigned integer", key, value)
		}
		return strconv.FormatUint(parsed, 10), nil

	case typeDecimal:
		amount, err := model.ParseAmount(value)
		if err != nil {
			return "", ruleerrors.Errorf(ruleerrors.ErrInvalidAttribute, "%s: %s", key, err)
		}
		return model.FormatAmount(amount), nil

	case typeFormats:
		return normalizeList(key, value, func(item string) error {
			_, err := addressformat.ParseFormat(item)
			return err
		})

	case typeAuthFormats:
		return normalizeList(key, value, func(item string) error {
			_, err := addressformat.ParseAuthPairing(item)
			return err
		})
	}
	return "", errors.Errorf("unhandled value type %d", spec.valueType)
}

func normalizeList(key string, value string, validate func(string) error) (string, error) {
	items := splitList(value)
	seen := make(map[string]struct{}, len(items))
	normalized := make([]string, 0, len(items))
	for _, item := range items {
		if err := validate(item); err != nil {
			return "", ruleerrors.Errorf(ruleerrors.ErrInvalidAttribute, "%s: %s", key, err)
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		normalized = append(normalized, item)
	}
	return strings.Join(normalized, ","), nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
