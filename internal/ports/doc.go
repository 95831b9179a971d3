// Package ports defines the interfaces (ports) that connect the application
// layer to hardware and infrastructure adapters.
//
// # Port Interfaces
//
//   - [Receiver]: infrared receiver channel producing raw pulse durations
//   - [Emitter]: infrared emitter channel replaying pulse durations on a carrier
//   - [SlotRepository]: durable per-slot pulse-train records
//   - [Input]: buttons, mode switch and hold queries
//   - [Feedback]: indicator lights
//   - [Logger]: structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) and the pipeline packages depend only
// on these interfaces. Adapters (internal/adapters) implement them for the
// file system, the console, and recorded signal replay; board support code
// implements Receiver and Emitter for real hardware.
package ports
