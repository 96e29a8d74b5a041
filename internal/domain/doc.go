// Package domain models the NHTSA Fatality Analysis Reporting System (FARS)
// accident census.
//
// # Data Source
//
// FARS publishes one accident file per calendar year. Each file is a
// bzip2-compressed, comma-delimited table with a header row, named
//
//	accident_<year>.csv.bz2  →  e.g. "accident_2013.csv.bz2"
//
// The year is written without zero padding. See [Filename].
//
// # Columns Consumed
//
//	STATE     integer FIPS-style state code (1 = Alabama, 6 = California, ...)
//	MONTH     integer month of the crash, 1–12
//	LATITUDE  decimal degrees
//	LONGITUD  decimal degrees (the census spells it without the trailing E)
//
// Every other column is carried through the generic read untouched.
//
// # Sentinel Values
//
// FARS encodes unknown coordinates with out-of-range numbers rather than
// blanks:
//
//	LATITUDE  77.7777, 88.8888, 99.9999  →  only values > 90 are treated as missing
//	LONGITUD  777.7777, 888.8888, 999.9999  →  only values > 900 are treated as missing
//
// A missing coordinate is dropped from map range computation and from marker
// placement. It never fails a request. See [IsMissingLatitude].
//
// # Monthly Summary
//
// Monthly counts are kept as a sparse (year, month) → count mapping and only
// materialized into a wide table on output. Months without any source row for
// a year stay null; they are never filled with zero. See [Summary].
package domain
