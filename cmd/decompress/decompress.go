// This script decodes every stream filter in a PDF file and rewrites it
// with the filters removed, the CLI surface for Document.Decompress().
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/harrowgate/pdf/reader"
	"github.com/harrowgate/pdf/write"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("missing input file")
	}
	filePath := os.Args[1]

	buf, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("reading input: %s", err)
	}

	doc, err := reader.Load(buf, reader.Options{})
	if err != nil {
		log.Fatalf("parsing input: %s", err)
	}

	if err := doc.Decompress(); err != nil {
		log.Fatalf("decompressing streams: %s", err)
	}

	output := filePath + ".decoded.pdf"
	f, err := os.Create(output)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	if err := write.Save(doc, f, write.Options{}); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Written in", output)
}
