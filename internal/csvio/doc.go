// Package csvio reads and writes the CSV files handled by the converter.
//
// Input may be UTF-8 (with or without a BOM), UTF-16 with a BOM, or any
// legacy encoding known to the WHATWG encoding index (windows-1255,
// iso-8859-8, ...). Output is always UTF-8 with a BOM so spreadsheet
// programs pick the right encoding.
package csvio
