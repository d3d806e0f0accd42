// Package script turns text with embedded expressions into executable
// templates.
//
// The stages are explicit:
//
//	Preclassify -> (markup conversion) -> Recheck -> Translate -> Compiler.Compile
//
// Translate rewrites ${expr}, <%= expr %> and <% if/for %> blocks into HCL
// template syntax; the Compiler parses that with hclsyntax, names each unit
// GrainScriptN and caches it.
//
// Expressions are HCL expressions. A dash is part of an identifier, so
// ${a-b} reads a variable named "a-b"; write ${a - b} to subtract.
package script
