// Package domain contains the core entities and value objects for irclone.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (receivers, emitters, file system,
// logging) and contains only the pulse-train model and its invariants.
//
// # Entities
//
//   - [PulseSample]: one mark or space duration in microsecond ticks
//   - [PulseTrain]: the ordered samples of one captured signal
//   - [Slot]: index of one of the fixed storage registers
//   - [Color]: an indicator color from the fixed feedback palette
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on business rules and invariants
//   - Testable without mocks or external systems
package domain
