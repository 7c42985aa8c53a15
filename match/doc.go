// Package match is the ranking core of metis.
//
// A query is normalized and split into terms (Tokenize), every record is
// scored by the number of terms that hit one of its searchable fields
// (Matcher.Match), and the scored records are ordered by descending score
// with ascending id as the tie-break (Rank).
//
// Everything in this package is a pure function of its inputs. Records are
// never modified and no state survives between calls.
package match
