package llm

import (
	"fmt"
	"strings"
)

// SystemPrompt frames every request.
const SystemPrompt = `You are a technical documentation expert. Your task is to analyze code and create clear, comprehensive documentation. Always structure your response with proper markdown formatting.`

// StyleGuide lists the markdown subset the document renderer understands.
const StyleGuide = `IMPORTANT FORMATTING RULES:
- Use ## for main section headings (not **)
- Use ### for subsections
- Use - for bullet points (not *)
- For code blocks, use ` + "```" + `language at the start and ` + "```" + ` at the end
- Keep paragraphs concise and professional
- Use proper markdown formatting`

const fileSections = `Structure your response with these sections:

## Overview
Brief description of what this code does and its purpose.

## Key Features
- List the main features/capabilities
- Use bullet points for clarity

## Code Structure

### Functions
For each function, provide:
- **Function Name**: Brief description
- **Parameters**: List with types and descriptions
- **Returns**: What it returns
- **Example**: Simple usage example

### Classes
For each class, provide:
- **Class Name**: Purpose and responsibility
- **Methods**: Key methods with descriptions
- **Usage**: How to instantiate and use

## Implementation Details
Explain the algorithms, design patterns, or notable implementation choices.

## Code Examples
Show how to use the main functions or classes in a fenced code block.

## Dependencies
List any external libraries or requirements.

## Notes
Any important considerations, limitations, or performance notes.`

const reactSections = `Structure your response with these sections:

## Overview
What the component renders and where it fits in the application.

## Project Setup
- Framework and key dependencies taken from package.json
- Available npm scripts

## Props
- **propName**: type, default, and purpose

## State and Hooks
Describe local state, effects, context usage, and custom hooks.

## Rendering Logic
Explain conditional rendering, lists, and child components.

## Usage Example
Show how to import and render the component in a fenced code block.

## Styling
Describe CSS modules, styled components, or utility classes in use.

## Notes
Accessibility, performance, and testing considerations.`

const nodeSections = `Structure your response with these sections:

## Overview
What the service does and how it is started.

## Project Setup
- Runtime and key dependencies taken from package.json
- Available npm scripts and required environment variables

## Server Configuration
Middleware, ports, and application-level settings.

## API Endpoints
For each route, provide:
- **METHOD /path**: purpose
- **Request**: parameters and body
- **Response**: shape and status codes

## Data Layer
Models, schemas, and database access.

## Error Handling
How errors are caught and reported.

## Usage Example
Show example requests in a fenced code block.

## Notes
Security, deployment, and scaling considerations.`

// SourceFile is a named file embedded in a prompt.
type SourceFile struct {
	Name    string `json:"filename"`
	Content string `json:"content"`
}

// BuildFilePrompt asks for documentation of a single source file.
func BuildFilePrompt(filename, code string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an expert technical writer creating professional documentation. Generate comprehensive documentation for this code file: %s\n\n", filename)
	sb.WriteString(StyleGuide)
	sb.WriteString("\n\n")
	sb.WriteString(fileSections)
	sb.WriteString("\n\nCode to analyze:\n")
	writeFenced(&sb, "", code)
	sb.WriteString("\nMake the documentation professional, clear, and well-structured. Focus on practical usage and clear explanations.\n")
	return sb.String()
}

// BuildReactPrompt asks for documentation of a React component in the
// context of its package.json.
func BuildReactPrompt(packageJSON, filename, component string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an expert technical writer documenting a React project. Generate comprehensive documentation for the component %s.\n\n", filename)
	sb.WriteString(StyleGuide)
	sb.WriteString("\n\n")
	sb.WriteString(reactSections)
	sb.WriteString("\n\npackage.json:\n")
	writeFenced(&sb, "json", packageJSON)
	fmt.Fprintf(&sb, "\nComponent (%s):\n", filename)
	writeFenced(&sb, "jsx", component)
	return sb.String()
}

// BuildNodePrompt asks for documentation of a Node.js backend: its
// package.json, main server file, and any supporting files.
func BuildNodePrompt(packageJSON, serverName, server string, extras []SourceFile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an expert technical writer documenting a Node.js backend. Generate comprehensive documentation for the service started by %s.\n\n", serverName)
	sb.WriteString(StyleGuide)
	sb.WriteString("\n\n")
	sb.WriteString(nodeSections)
	sb.WriteString("\n\npackage.json:\n")
	writeFenced(&sb, "json", packageJSON)
	fmt.Fprintf(&sb, "\nMain server file (%s):\n", serverName)
	writeFenced(&sb, "javascript", server)
	for _, f := range extras {
		fmt.Fprintf(&sb, "\nAdditional file (%s):\n", f.Name)
		writeFenced(&sb, fenceLanguage(f.Name), f.Content)
	}
	return sb.String()
}

func writeFenced(sb *strings.Builder, lang, body string) {
	sb.WriteString("```")
	sb.WriteString(lang)
	sb.WriteString("\n")
	sb.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("```\n")
}

func fenceLanguage(name string) string {
	switch {
	case strings.HasSuffix(name, ".json"):
		return "json"
	case strings.HasSuffix(name, ".ts"):
		return "typescript"
	default:
		return "javascript"
	}
}
