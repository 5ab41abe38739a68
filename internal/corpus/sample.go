package corpus

import "github.com/finsight/finchat/internal/model"

// SampleRecords returns the built-in fallback dataset used when the corpus
// file cannot be loaded. It is a single real-shaped record so retrieval,
// formatting, and the downstream agents still have something to work with.
func SampleRecords() []model.Record {
	return []model.Record{
		{
			QA: model.QA{
				Question: "what was the percentage change in the net cash from operating activities from 2008 to 2009",
				Answer:   "14.1%",
				Program:  "subtract(206588, 181001), divide(#0, 181001)",
			},
			PreText: []string{
				"the company's cash flow from operations is summarized below .",
				"cash provided by operating activities increased in 2009 primarily due to improved working capital management .",
			},
			PostText: []string{
				"year ended december 31 , 2009 compared to year ended december 31 , 2008 .",
				"net cash provided by operating activities increased $ 25587 , reflecting higher earnings and favorable timing of payments .",
			},
			Table: [][]string{
				{"", "2009", "2008", "2007"},
				{"net cash provided by operating activities", "$ 206588", "$ 181001", "$ 174247"},
				{"net cash used in investing activities", "$ -42560 ( 42560 )", "$ -74569 ( 74569 )", "$ -94959 ( 94959 )"},
				{"net cash used in financing activities", "$ -116504 ( 116504 )", "$ -90401 ( 90401 )", "$ -85610 ( 85610 )"},
			},
			Filename: "sample_file.pdf",
		},
	}
}
