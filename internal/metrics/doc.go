// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

// Package metrics exposes the Prometheus collectors of the unfreeze service.
// All collectors register on the default registry via promauto.
package metrics
