// Package aquaalert is a water bowser fleet tracking platform.
//
// # Overview
//
// AquaAlert manages a fleet of mobile water tankers (bowsers), the
// locations they serve during supply interruptions, and the lifecycle of
// every deployment. Open requests are scored and ranked so dispatchers
// always see the most urgent need first.
//
// The platform consists of three main components:
//   - API Server: REST API for fleet and deployment management
//   - Dispatch Core: lifecycle controller, priority scorer and ranking
//   - Storage Layer: CouchDB-backed entity store with an in-memory
//     backend for development and tests
//
// # Architecture
//
//	┌─────────────────┐
//	│   REST Clients  │
//	│ (CLI, dashboards)│
//	└────────┬────────┘
//	         │
//	┌────────▼────────┐       ┌─────────────────┐
//	│  API Server     │◄──────┤   Scheduler     │
//	│  (Echo REST)    │       │ (housekeeping)  │
//	└────────┬────────┘       └────────┬────────┘
//	         │                         │
//	┌────────▼─────────────────────────▼┐
//	│          Dispatch Core            │
//	│ (lifecycle, scoring, ranking)     │
//	└────────┬──────────────────────────┘
//	         │
//	┌────────▼────────┐
//	│  Storage Layer  │
//	│ (CouchDB/memory)│
//	└─────────────────┘
//
// # Core Features
//
// Deployment lifecycle:
//   - One open deployment per bowser, enforced at the write path
//   - Paired writes with rollback, so a storage failure never leaves a
//     deployment and its bowser disagreeing
//
// Emergency priority:
//   - Deterministic 0-100 score from priority tier, population,
//     vulnerability and alternative supply
//   - Ranked dispatch queue over all active deployments
//
// REST API:
//   - Full CRUD for bowsers, locations, deployments, maintenance, alerts
//   - JWT authentication with role-based access control
//   - WebSocket support for real-time fleet updates
//
// # Quick Start
//
//	aquaalert seed --admin-password s3cret --sample-data
//	aquaalert server
//
// See the internal packages for implementation detail: internal/dispatch
// holds the core rules, internal/storage the entity store, internal/api
// the HTTP surface.
package aquaalert
