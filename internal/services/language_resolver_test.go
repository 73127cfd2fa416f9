package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alimgiray/gfame/internal/models"
)

func TestLanguageResolverResolveExtension(t *testing.T) {
	resolver := NewLanguageResolver()

	tests := []struct {
		ext      string
		expected string
	}{
		{".py", "Python"},
		{"py", "Python"},
		{".PY", "Python"},
		{".go", "Go"},
		{".tsx", "TypeScript"},
		{".scss", "CSS"},
		{".md", "Documentation"},
		{".json", "Configuration"},
		{".png", "Assets"},
		{".lock", "Configuration"},
		{".gradle", "Build"},
		{".nope", UnknownLanguage},
		{"", UnknownLanguage},
		{".", UnknownLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolver.ResolveExtension(tt.ext))
		})
	}
}

func TestLanguageResolverResolveFilename(t *testing.T) {
	resolver := NewLanguageResolver()

	tests := []struct {
		name     string
		expected string
	}{
		{"Makefile", "Makefile"},
		{"build/Dockerfile", "Dockerfile"},
		{"go.mod", "Go"},
		{"go.sum", "Configuration"},
		{"pom.xml", "Build"},
		{"src/main.rs", "Rust"},
		{`src\app\main.py`, "Python"},
		{"README", UnknownLanguage},
		{".gitignore", UnknownLanguage},
		{"", UnknownLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolver.ResolveFilename(tt.name))
		})
	}
}

func TestAggregateByLanguageDropsExcludedCategories(t *testing.T) {
	resolver := NewLanguageResolver()

	languages := resolver.AggregateByLanguage(map[string]models.AuthorStats{
		".py":   {LOC: 500},
		".json": {LOC: 300},
	})

	assert.Equal(t, models.LanguageStats{"Python": {LOC: 500}}, languages)
	assert.Equal(t, 500, languages.Total().LOC)
}

func TestAggregateByLanguageMergesAliases(t *testing.T) {
	resolver := NewLanguageResolver()

	languages := resolver.AggregateByLanguage(map[string]models.AuthorStats{
		".css":     {LOC: 10, Files: 1},
		".scss":    {LOC: 20, Files: 2},
		".go":      {LOC: 100, Commits: 3, Files: 4},
		"Makefile": {LOC: 5, Files: 1},
		"go.mod":   {LOC: 7, Files: 1},
		"":         {LOC: 99},
		".ts":      {LOC: -4, Files: -1},
	})

	assert.Equal(t, models.LanguageStats{
		"CSS":        {LOC: 30, Files: 3},
		"Go":         {LOC: 107, Commits: 3, Files: 5},
		"Makefile":   {LOC: 5, Files: 1},
		"TypeScript": {},
	}, languages)
}

func TestLanguageResolverExtraExclusions(t *testing.T) {
	resolver := NewLanguageResolver("Shell", " ")

	assert.True(t, resolver.IsExcluded("Shell"))
	assert.True(t, resolver.IsExcluded("Configuration"))
	assert.False(t, resolver.IsExcluded("Go"))

	languages := resolver.AggregateByLanguage(map[string]models.AuthorStats{".sh": {LOC: 40}, ".go": {LOC: 1}})
	assert.Equal(t, models.LanguageStats{"Go": {LOC: 1}}, languages)

	// instances do not share tables
	assert.False(t, NewLanguageResolver().IsExcluded("Shell"))
}

func TestSupportedLanguages(t *testing.T) {
	langs := NewLanguageResolver().SupportedLanguages()

	assert.Contains(t, langs, "Go")
	assert.Contains(t, langs, "Configuration")
	assert.NotContains(t, langs, "SCSS")
	assert.IsIncreasing(t, langs)
}
