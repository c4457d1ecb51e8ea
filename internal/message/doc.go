// Package message stores the append-only log of text messages sent by
// beacons. Messages are stamped server-side at append time with a
// fixed-width UTC timestamp so lexicographic order on the stored string
// matches temporal order, which keeps the since-filter a plain string
// comparison in SQL.
package message
