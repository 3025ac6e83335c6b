// Package sim provides the tick engine for a closed trading economy: companies with
// budgets buy products from suppliers that hold stock, while periodic economic events
// perturb prices, stock, budgets and product availability.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - engine.go: AdvanceTick, company selection and the per-tick result
//   - strategy.go: how a selected company picks the product to attempt
//   - purchase.go: supplier choice, affordability and the paired budget/stock update
//   - events.go: the event gates and their dispatch order
//
// # Architecture
//
// The sim package owns the engine and its mutable state; data types and collaborators
// live in sub-packages:
//   - sim/ledger/: companies, suppliers, products and the Store they live in
//   - sim/pricing/: the (product, supplier) price table
//   - sim/trace/: purchase and event records and the sinks that persist them
//   - sim/worldgen/: seeded generation of an initial world
//   - sim/metrics/: Prometheus exposition of tick summaries
//
// # Determinism
//
// Every random draw comes from a PartitionedRNG subsystem derived from Config.Seed.
// With the same seed, configuration and initial world, two engines emit identical
// record sequences; records are stamped by Engine.Clock, which tests pin.
package sim
