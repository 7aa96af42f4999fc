// Package ident derives the string identifiers of graph elements and the
// constructor symbols that name fact types.
package ident

import (
	"strconv"
	"strings"

	"clara-graph/rule"
)

const (
	// FactPrefix prefixes fact node ids.
	FactPrefix = "FT-"
	// ProductionPrefix prefixes production node ids.
	ProductionPrefix = "P-"
	// ConstructorPrefix marks a positional fact constructor, as in "ns/->Type".
	ConstructorPrefix = "->"
	// MangleDelimiter stands in for a namespace separator in mangled names.
	MangleDelimiter = "_"
)

// ConditionID identifies the condition at position pos of a production's
// condition sequence. productionHash scopes the id to the production.
func ConditionID(pos int, productionHash string) string {
	return strconv.Itoa(pos) + "-" + productionHash
}

// FactID identifies a fact type. It depends only on the fully-qualified
// name, so every production referencing the type shares the node.
func FactID(factType string) string {
	return FactPrefix + factType
}

// ProductionID identifies a production by its structural hash.
func ProductionID(productionHash string) string {
	return ProductionPrefix + productionHash
}

// FactSymbol returns the constructor reference for a fully-qualified type
// name: "org.example.Order" becomes "org.example/->Order".
func FactSymbol(factType string) string {
	return constructorSymbol(factType).String()
}

func constructorSymbol(factType string) rule.Symbol {
	ns, typeName := splitTypeName(factType)
	return rule.Symbol{Namespace: ns, Name: ConstructorPrefix + typeName}
}

func splitTypeName(factType string) (string, string) {
	i := strings.LastIndex(factType, ".")
	if i < 0 {
		return "", factType
	}
	return demangle(factType[:i]), factType[i+1:]
}

func demangle(ns string) string {
	return strings.ReplaceAll(ns, MangleDelimiter, ".")
}

// ConstructedType reports the fact type built by a constructor symbol such
// as "org.example/->Shipped". ok is false when the symbol is not a
// constructor.
func ConstructedType(sym rule.Symbol) (factType string, ok bool) {
	typeName, ok := strings.CutPrefix(sym.Name, ConstructorPrefix)
	if !ok || typeName == "" {
		return "", false
	}
	if sym.Namespace == "" {
		return typeName, true
	}
	return demangle(sym.Namespace) + "." + typeName, true
}
