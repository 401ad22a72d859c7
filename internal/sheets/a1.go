package sheets

import "fmt"

// ColumnLetter converts a zero-based column index to its A1-style letter
// sequence: 0 -> A, 25 -> Z, 26 -> AA. Base-26 with no zero digit, so each
// step subtracts one before dividing.
func ColumnLetter(index int) string {
	var letters []byte
	for index >= 0 {
		letters = append([]byte{byte('A' + index%26)}, letters...)
		index = index/26 - 1
	}
	return string(letters)
}

// cellRange builds the A1 range addressing a single cell on the named
// sheet. row is 1-based, col zero-based.
func cellRange(sheetName string, row, col int) string {
	return fmt.Sprintf("'%s'!%s%d", sheetName, ColumnLetter(col), row)
}
