package intake

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

// Dependency names that mark a package.json as belonging to each project kind.
var (
	ReactIndicators = []string{"react", "react-dom", "@types/react", "next", "gatsby"}
	NodeIndicators  = []string{"express", "koa", "fastify", "hapi", "nestjs", "mongoose", "mongodb"}
)

var (
	componentExtensions  = []string{".js", ".jsx", ".ts", ".tsx"}
	serverExtensions     = []string{".js", ".ts"}
	additionalExtensions = []string{".js", ".ts", ".json"}

	reactPatterns = []string{
		"import React", `from "react"`, `from 'react'`, "import { ",
		"export default", "function ", "const ", "return (",
	}
	expressPatterns = []string{
		"express()", "app.listen", "app.get", "app.post", "app.use",
		"require('express')", "import express", "from 'express'",
	}
)

// PackageJSON holds the parts of a package.json the validators read.
type PackageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version,omitempty"`
	Scripts         map[string]string `json:"scripts,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
}

// HasAny reports whether any of names is a dependency or dev dependency.
func (p *PackageJSON) HasAny(names []string) bool {
	for _, n := range names {
		if _, ok := p.Dependencies[n]; ok {
			return true
		}
		if _, ok := p.DevDependencies[n]; ok {
			return true
		}
	}
	return false
}

// ParsePackageJSON decodes content and requires a "name" field.
func ParsePackageJSON(content string) (*PackageJSON, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, invalid("Invalid JSON format")
	}
	if _, ok := raw["name"]; !ok {
		return nil, invalid("Missing 'name' field in package.json")
	}
	pkg := &PackageJSON{}
	if err := json.Unmarshal([]byte(content), pkg); err != nil {
		return nil, invalid("Invalid package.json: %s", err)
	}
	return pkg, nil
}

// ValidateReactPackageJSON accepts package.json files that depend on React
// or a React framework.
func ValidateReactPackageJSON(content string) (*PackageJSON, error) {
	pkg, err := ParsePackageJSON(content)
	if err != nil {
		return nil, err
	}
	if !pkg.HasAny(ReactIndicators) {
		return nil, invalid("This doesn't appear to be a React project. No React dependencies found.")
	}
	return pkg, nil
}

// ValidateNodePackageJSON accepts package.json files that depend on a Node
// web framework or database driver.
func ValidateNodePackageJSON(content string) (*PackageJSON, error) {
	pkg, err := ParsePackageJSON(content)
	if err != nil {
		return nil, err
	}
	if !pkg.HasAny(NodeIndicators) {
		return nil, invalid("This doesn't appear to be a Node.js backend project. No Express, MongoDB, or other backend dependencies found.")
	}
	return pkg, nil
}

// ValidateComponent checks a React component's extension and that it looks
// like JavaScript module code.
func ValidateComponent(filename, content string) error {
	if !hasExtension(filename, componentExtensions) {
		return invalid("Invalid file type. Expected: %s", strings.Join(componentExtensions, ", "))
	}
	if !containsAny(content, reactPatterns) {
		return invalid("This doesn't appear to be a React component file")
	}
	return nil
}

// ValidateServerFile checks a Node entry point for Express usage.
func ValidateServerFile(filename, content string) error {
	if !hasExtension(filename, serverExtensions) {
		return invalid("Server file must be a JavaScript or TypeScript file")
	}
	if !containsAny(content, expressPatterns) {
		return invalid("This doesn't appear to be an Express server file. No Express patterns found.")
	}
	return nil
}

// ValidateAdditionalFile checks routes, models and other supporting files.
func ValidateAdditionalFile(filename string) error {
	if !hasExtension(filename, additionalExtensions) {
		return invalid("Additional files must be JavaScript, TypeScript, or JSON files")
	}
	return nil
}

func hasExtension(filename string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
