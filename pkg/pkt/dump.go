package pkt

import (
	"Go2NetEuclid/internal/model"
	"fmt"
	"io"
)

// Dump prints a summary of src: the entry count, the records near both ends
// and a run of 20 records from the middle.
func Dump(w io.Writer, src model.RecordSource) error {
	total := src.EntryCount()
	if _, err := fmt.Fprintf(w, "Entry count: %d\n", total); err != nil {
		return err
	}

	src.Reset()
	var count uint64
	for rec, ok := src.Next(); ok; rec, ok = src.Next() {
		edge := count <= 5 || total-count <= 5
		middle := count > total/2 && count <= total/2+20
		if edge || middle {
			if err := dumpRecord(w, count+1, rec); err != nil {
				return err
			}
		}
		count++
	}
	return nil
}

func dumpRecord(w io.Writer, n uint64, rec *model.FlowRecord) error {
	malicious := "No"
	if rec.IsOriginalMalicious() {
		malicious = "Yes"
	}
	_, err := fmt.Fprintf(w, "%d:\n\tSource IP: %s\n\tDestination IP: %s\n\tClassified: %d\n\tOriginal: %d\n\tMalicious: %s\n",
		n, model.AddrToIP(rec.SrcAddr), model.AddrToIP(rec.DstAddr), rec.Classified, rec.Original, malicious)
	return err
}
