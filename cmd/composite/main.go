// Command composite prints a small hand-built file tree, removes one file
// and prints it again.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/CageChen/foldertree/internal/tree"
)

func main() {
	file1 := tree.NewFile("file1.txt")
	file2 := tree.NewFile("file2.txt")
	file3 := tree.NewFile("file3.txt")
	file4 := tree.NewFile("file4.txt")

	documents := tree.NewFolder("Documents")
	documents.Add(file1)
	documents.Add(file2)
	documents.Add(file4)

	images := tree.NewFolder("Images")
	images.Add(file3)

	root := tree.NewFolder("Root")
	root.Add(documents)
	root.Add(images)

	if err := root.Display(os.Stdout, ""); err != nil {
		log.Fatalf("display failed: %v", err)
	}

	documents.Remove(file4)

	fmt.Println()
	if err := root.Display(os.Stdout, ""); err != nil {
		log.Fatalf("display failed: %v", err)
	}
}
