package services

import (
	"errors"
	"fmt"
	"regexp"
	"regexp/syntax"
	"strings"

	"github.com/alimgiray/gfame/internal/models"
	"github.com/alimgiray/gfame/pkg/config"
)

// AuthorClassifier assigns a role to an author identity using the configured
// bot and designated author patterns
type AuthorClassifier struct {
	designated []*regexp.Regexp
	bots       []*regexp.Regexp
}

// NewAuthorClassifier compiles both pattern lists. Matching is a case
// insensitive search anywhere in the name.
func NewAuthorClassifier(designatedPatterns, botPatterns []string) (*AuthorClassifier, error) {
	if len(designatedPatterns) == 0 {
		return nil, &config.ConfigError{Problems: []string{"at least one designated author pattern is required"}}
	}

	designated, err := compilePatterns("designated", designatedPatterns)
	if err != nil {
		return nil, err
	}
	bots, err := compilePatterns("bot", botPatterns)
	if err != nil {
		return nil, err
	}

	return &AuthorClassifier{designated: designated, bots: bots}, nil
}

func compilePatterns(kind string, patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	var problems []string

	for _, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			problems = append(problems, fmt.Sprintf("blank %s pattern", kind))
			continue
		}
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			var syntaxErr *syntax.Error
			if errors.As(err, &syntaxErr) {
				problems = append(problems, fmt.Sprintf("invalid %s pattern %q: %s", kind, pattern, syntaxErr.Code))
			} else {
				problems = append(problems, fmt.Sprintf("invalid %s pattern %q: %v", kind, pattern, err))
			}
			continue
		}
		compiled = append(compiled, re)
	}

	if len(problems) > 0 {
		return nil, &config.ConfigError{Problems: problems}
	}
	return compiled, nil
}

// Classify returns the role of authorName. Bot patterns are checked first so
// a bot never counts as the designated author.
func (c *AuthorClassifier) Classify(authorName string) models.AuthorRole {
	name := strings.TrimSpace(authorName)
	if name == "" {
		return models.AuthorRoleOther
	}
	if matchesAny(c.bots, name) {
		return models.AuthorRoleBot
	}
	if matchesAny(c.designated, name) {
		return models.AuthorRoleDesignated
	}
	return models.AuthorRoleOther
}

func matchesAny(patterns []*regexp.Regexp, name string) bool {
	for _, re := range patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
