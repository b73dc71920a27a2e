// Package geocode detects place names in free text and resolves them to
// coordinates.
//
// Detection matches a fixed gazetteer, longest names first. Resolution
// walks five tiers and the first hit wins: the local override table, a
// search bounded to the Taiwan box (only for names that hint at the
// region), a search restricted to Taiwan, the name qualified with 台灣, and
// finally an unrestricted search. Remote tiers are single Nominatim calls
// with a fixed timeout and no retry; any failure moves on to the next tier.
package geocode
