// Package core defines the shared language of the DAL query compiler.
//
// This package contains:
//   - Schema metadata consumed read-only (Type, Field, DataType, Resolver)
//   - The compiled query model (Criteria, the Restriction variants,
//     AggregateCall, Ordering)
//   - PIR, the id-based form of a dotted property path
//   - The two error kinds raised by every compiler stage (SyntaxError,
//     SchemaError)
//
// The Golden Rule: pkg/core imports ONLY pkg/token and stdlib.
// The lexer, parser, renderer and JSON codec depend on core, not the reverse.
package core
