package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/divyyeahhhhh/autocampaign/internal/domain"
)

// SampleFileName is the suggested download name for the sample file.
const SampleFileName = "sample-customers.csv"

// sampleCSV is the fixed sample emitted by the "download sample" affordance.
// The contents never vary with application state.
const sampleCSV = "customerId,name,phone,email,age,city,country,occupation,income,creditScore\n" +
	"CUST001,Rajesh Kumar,+919876543210,rajesh.kumar@example.com,35,Mumbai,India,Software Engineer,75000,720\n" +
	"CUST002,Priya Sharma,+919876543211,priya.sharma@example.com,28,Delhi,India,Marketing Manager,90000,780\n" +
	"CUST003,Amit Patel,+919876543212,amit.patel@example.com,42,Bangalore,India,Business Owner,120000,650"

// SampleCSV returns the fixed sample file contents.
func SampleCSV() []byte {
	return []byte(sampleCSV)
}

// SampleDataset returns the sample rows pre-parsed, as used by the guided
// tour's auto-upload step.
func SampleDataset() *domain.UploadedDataset {
	ds, err := Parse(SampleFileName, SampleCSV())
	if err != nil {
		// The literal above is a constant; a parse failure is a programming error.
		panic(fmt.Sprintf("ingest: sample csv does not parse: %v", err))
	}
	return ds
}

// ExportRun writes a completed run as CSV: one line per generated message,
// ready for a CRM import.
func ExportRun(w io.Writer, run *domain.GenerationRun) error {
	cw := csv.NewWriter(w)
	header := []string{"row_number", "customer_id", "customer_name", "content", "compliance_score", "ai_confidence", "status", "reasoning"}
	if err := cw.Write(header); err != nil {
		return err
	}

	msgs := append([]domain.GeneratedMessage(nil), run.Messages...)
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].RowNumber < msgs[j].RowNumber })

	for _, m := range msgs {
		record := []string{
			strconv.Itoa(m.RowNumber),
			m.CustomerID,
			m.CustomerName,
			m.Content,
			strconv.Itoa(m.ComplianceScore),
			strconv.Itoa(m.AIConfidence),
			string(m.Status),
			m.Reasoning,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
