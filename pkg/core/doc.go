// Package core defines the shared language of the leapgrid system.
//
// This package contains:
//   - Record contracts (Record, Value) and the shipped Product record
//   - View state (FilterSet, SortSpec, PageRequest, ViewState)
//   - Query contracts (QueryRequest, Page, Pagination)
//   - The data source boundary (DataSource, FetchRequest, FetchResult)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
