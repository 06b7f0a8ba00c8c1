/*
Package index is the secondary-index manager (spec §4.D): property,
composite, label, relationship-type and full-text indexes kept
consistent with pkg/graph through a one-way hook (graph → manager;
the manager never reaches back into the graph's maps).

Property and composite indexes are backed by github.com/google/btree,
the B-tree dependency the wider example pack (erigon) also carries,
ordered by a total order over types.Value defined in order.go. Label
and relationship indexes are plain sets, since their lookup is "all
members", not a range. Full-text is a simple inverted index: tokenize
on non-alphanumeric runs, lowercase, no external stemmer.
*/
package index
