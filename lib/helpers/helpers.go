package helpers

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrInvalidTarget = errors.New("target price must be a positive number")

func EscapeMarkdownV2(text string) string {
	charactersToEscape := []string{"\\", ".", "-", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "=", "|", "{", "}", "!"}

	for _, char := range charactersToEscape {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

func FormatPriceUS(price float64, escapeMarkdown bool) string {
	decimals := 6

	if price >= 1000 {
		decimals = 0
	} else if price > 1.2 {
		decimals = 2
	} else if price < 0.00001 {
		decimals = 8
	}

	p := message.NewPrinter(language.English)
	formatted := p.Sprintf("%.*f", decimals, price)

	if escapeMarkdown {
		return EscapeMarkdownV2(formatted)
	}
	return formatted
}

func FormatPercentage(change float64, escapeMarkdown bool) string {
	formatted := strconv.FormatFloat(change, 'f', 2, 64) + "%"
	if change > 0 {
		formatted = "+" + formatted
	}

	if escapeMarkdown {
		return EscapeMarkdownV2(formatted)
	}
	return formatted
}

// ParseTarget parses a user supplied target price such as "50000", "$50,000" or "0.5"
func ParseTarget(input string) (float64, error) {
	cleaned := strings.TrimSpace(input)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	target, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidTarget, "parse %q", input)
	}
	if target <= 0 || math.IsInf(target, 0) || math.IsNaN(target) {
		return 0, errors.Wrapf(ErrInvalidTarget, "got %q", input)
	}
	return target, nil
}
