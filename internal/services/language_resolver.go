package services

import (
	"path"
	"sort"
	"strings"

	"github.com/alimgiray/gfame/internal/models"
)

// UnknownLanguage is returned for extensions and filenames with no table entry
const UnknownLanguage = "Unknown"

var defaultExtensionLanguages = map[string]string{
	// Python
	".py": "Python", ".pyw": "Python", ".pyi": "Python", ".pyx": "Python", ".pxd": "Python",
	// JavaScript / TypeScript
	".js": "JavaScript", ".jsx": "JavaScript", ".mjs": "JavaScript", ".cjs": "JavaScript",
	".ts": "TypeScript", ".tsx": "TypeScript", ".mts": "TypeScript",
	".vue": "Vue", ".svelte": "Svelte",
	// JVM
	".java": "Java", ".jav": "Java",
	".kt": "Kotlin", ".kts": "Kotlin",
	".scala": "Scala", ".sc": "Scala",
	".groovy": "Groovy",
	".clj": "Clojure", ".cljc": "Clojure", ".cljs": "ClojureScript",
	// C family
	".c": "C", ".h": "C",
	".cpp": "C++", ".cc": "C++", ".cxx": "C++", ".c++": "C++", ".hpp": "C++", ".hxx": "C++", ".h++": "C++",
	".cs": "C#", ".csx": "C#",
	".m": "Objective-C", ".mm": "Objective-C",
	// Systems
	".go": "Go",
	".rs": "Rust",
	".swift": "Swift",
	".zig": "Zig",
	".dart": "Dart",
	// Scripting
	".php": "PHP", ".phtml": "PHP", ".php3": "PHP", ".php4": "PHP", ".php5": "PHP",
	".rb": "Ruby", ".rake": "Ruby", ".gemspec": "Ruby", ".podspec": "Ruby",
	".pl": "Perl", ".pm": "Perl",
	".lua": "Lua",
	".r": "R", ".rmd": "R",
	".jl": "Julia",
	".ex": "Elixir", ".exs": "Elixir", ".eex": "Elixir", ".heex": "Elixir",
	".erl": "Erlang", ".hrl": "Erlang",
	".hs": "Haskell", ".lhs": "Haskell",
	".ml": "OCaml", ".mli": "OCaml",
	".fs": "F#", ".fsi": "F#", ".fsx": "F#",
	// Shell
	".sh": "Shell", ".bash": "Shell", ".zsh": "Shell", ".fish": "Shell", ".ksh": "Shell",
	".ps1": "PowerShell", ".psm1": "PowerShell", ".psd1": "PowerShell",
	".bat": "Batchfile", ".cmd": "Batchfile",
	// Data / query
	".sql": "SQL", ".ddl": "SQL", ".dml": "SQL",
	".graphql": "GraphQL", ".gql": "GraphQL",
	".proto": "Protocol Buffers",
	// Web
	".html": "HTML", ".htm": "HTML", ".xhtml": "HTML",
	".css": "CSS", ".scss": "SCSS", ".sass": "Sass", ".less": "Less",
	// Hardware / low level
	".asm": "Assembly", ".s": "Assembly", ".nasm": "Assembly",
	".vhd": "VHDL", ".vhdl": "VHDL",
	".v": "Verilog", ".vh": "Verilog", ".sv": "SystemVerilog",
	// Infrastructure
	".tf": "HCL", ".tfvars": "HCL", ".hcl": "HCL",
	".dockerfile": "Dockerfile",
	".mk": "Makefile", ".mak": "Makefile",
	".cmake": "CMake",
	".gradle": "Gradle",
	// Markup and docs
	".tex": "TeX", ".ltx": "TeX", ".sty": "TeX", ".cls": "TeX",
	".bib": "BibTeX",
	".md": "Markdown", ".markdown": "Markdown", ".mdx": "Markdown",
	".rst": "reStructuredText", ".adoc": "AsciiDoc",
	".txt": "Text", ".log": "Log",
	// Configuration
	".json": "JSON", ".jsonc": "JSON",
	".yml": "YAML", ".yaml": "YAML",
	".toml": "TOML",
	".ini": "INI", ".cfg": "INI", ".conf": "INI",
	".properties": "Properties", ".env": "Properties",
	".xml": "XML", ".xsd": "XML", ".xsl": "XML", ".xslt": "XML",
	".lock": "Lockfile",
	".csv": "CSV", ".tsv": "CSV",
	// Assets
	".png": "Image", ".jpg": "Image", ".jpeg": "Image", ".gif": "Image", ".svg": "Image",
	".ico": "Image", ".bmp": "Image", ".tiff": "Image", ".webp": "Image",
	".ttf": "Font", ".otf": "Font", ".woff": "Font", ".woff2": "Font", ".eot": "Font",
	".zip": "Archive", ".tar": "Archive", ".gz": "Archive", ".rar": "Archive", ".7z": "Archive", ".bz2": "Archive",
	".exe": "Binary", ".dll": "Binary", ".so": "Binary", ".dylib": "Binary", ".o": "Binary",
	".obj": "Binary", ".a": "Binary", ".lib": "Binary", ".pyc": "Binary", ".class": "Binary",
}

var defaultFilenameLanguages = map[string]string{
	"Makefile":          "Makefile",
	"GNUmakefile":       "Makefile",
	"Dockerfile":        "Dockerfile",
	"CMakeLists.txt":    "CMake",
	"Rakefile":          "Ruby",
	"Gemfile":           "Ruby",
	"setup.py":          "Python",
	"go.mod":            "Go",
	"build.gradle":      "Gradle",
	"pom.xml":           "Maven",
	"package.json":      "JSON",
	"composer.json":     "JSON",
	"Cargo.toml":        "TOML",
	"requirements.txt":  "Text",
	"go.sum":            "Lockfile",
	"Gemfile.lock":      "Lockfile",
	"Cargo.lock":        "Lockfile",
	"composer.lock":     "Lockfile",
	"package-lock.json": "Lockfile",
	"yarn.lock":         "Lockfile",
	"pnpm-lock.yaml":    "Lockfile",
	"poetry.lock":       "Lockfile",
}

// Aliases fold presentation variants into one umbrella label
var defaultLanguageAliases = map[string]string{
	"SCSS":             "CSS",
	"Sass":             "CSS",
	"Less":             "CSS",
	"Markdown":         "Documentation",
	"reStructuredText": "Documentation",
	"AsciiDoc":         "Documentation",
	"BibTeX":           "Documentation",
	"Text":             "Documentation",
	"Log":              "Documentation",
	"JSON":             "Configuration",
	"YAML":             "Configuration",
	"TOML":             "Configuration",
	"INI":              "Configuration",
	"XML":              "Configuration",
	"Properties":       "Configuration",
	"Lockfile":         "Configuration",
	"CSV":              "Data",
	"Image":            "Assets",
	"Font":             "Assets",
	"Archive":          "Assets",
	"Binary":           "Assets",
	"Maven":            "Build",
	"Gradle":           "Build",
}

// Categories never attributed to a language total
var defaultExcludedLanguages = []string{
	"Configuration", "Documentation", "Assets", "Build", "Data", UnknownLanguage,
	"YAML", "JSON", "TOML", "INI", "Properties", "XML", "Lockfile",
	"Markdown", "Text", "Log", "reStructuredText", "AsciiDoc", "BibTeX", "CSV",
	"Image", "Font", "Archive", "Binary",
}

// LanguageResolver maps extensions and filenames to language labels. Each
// instance owns private copies of its lookup tables.
type LanguageResolver struct {
	extensions map[string]string
	filenames  map[string]string
	aliases    map[string]string
	excluded   map[string]bool
}

// NewLanguageResolver builds a resolver. extraExcluded adds labels to the
// default exclusion set.
func NewLanguageResolver(extraExcluded ...string) *LanguageResolver {
	r := &LanguageResolver{
		extensions: copyTable(defaultExtensionLanguages),
		filenames:  copyTable(defaultFilenameLanguages),
		aliases:    copyTable(defaultLanguageAliases),
		excluded:   make(map[string]bool, len(defaultExcludedLanguages)+len(extraExcluded)),
	}
	for _, lang := range defaultExcludedLanguages {
		r.excluded[lang] = true
	}
	for _, lang := range extraExcluded {
		if lang = strings.TrimSpace(lang); lang != "" {
			r.excluded[lang] = true
		}
	}
	return r
}

func copyTable(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// ResolveExtension returns the language for ext. The extension is lower
// cased and a missing leading dot is added.
func (r *LanguageResolver) ResolveExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return UnknownLanguage
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	lang, ok := r.extensions[ext]
	if !ok {
		return UnknownLanguage
	}
	return r.alias(lang)
}

// ResolveFilename returns the language for a file name or path. Special
// filenames win over the extension.
func (r *LanguageResolver) ResolveFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return UnknownLanguage
	}
	base := path.Base(name)

	if lang, ok := r.filenames[base]; ok {
		return r.alias(lang)
	}

	ext := path.Ext(base)
	if ext == "" || ext == base {
		return UnknownLanguage
	}
	return r.ResolveExtension(ext)
}

func (r *LanguageResolver) alias(lang string) string {
	if umbrella, ok := r.aliases[lang]; ok {
		return umbrella
	}
	return lang
}

// IsExcluded reports whether lang is a non-code category
func (r *LanguageResolver) IsExcluded(lang string) bool {
	return r.excluded[lang]
}

// AggregateByLanguage sums per-extension stats into per-language stats.
// Keys starting with a dot are extensions, anything else is a filename.
// Excluded categories are dropped, so the result can total less than the
// input.
func (r *LanguageResolver) AggregateByLanguage(extensionStats map[string]models.AuthorStats) models.LanguageStats {
	languages := make(models.LanguageStats)

	for key, stats := range extensionStats {
		var lang string
		trimmed := strings.TrimSpace(key)
		switch {
		case trimmed == "":
			lang = UnknownLanguage
		case strings.HasPrefix(trimmed, "."):
			lang = r.ResolveExtension(trimmed)
		default:
			lang = r.ResolveFilename(trimmed)
		}

		if r.IsExcluded(lang) {
			continue
		}

		languages[lang] = languages[lang].Add(models.NewAuthorStats(stats.LOC, stats.Commits, stats.Files))
	}

	return languages
}

// SupportedLanguages lists every label the resolver can produce, including
// excluded categories
func (r *LanguageResolver) SupportedLanguages() []string {
	seen := make(map[string]bool)
	for _, lang := range r.extensions {
		seen[r.alias(lang)] = true
	}
	for _, lang := range r.filenames {
		seen[r.alias(lang)] = true
	}

	langs := make([]string, 0, len(seen))
	for lang := range seen {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// IsSpecialFilename reports whether name has its own table entry
func (r *LanguageResolver) IsSpecialFilename(name string) bool {
	_, ok := r.filenames[name]
	return ok
}
