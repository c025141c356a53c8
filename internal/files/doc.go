// Package files groups the file-related sub-packages used to discover and
// read experiment CSV files:
//   - filesystem: filesystem abstraction with OS and in-memory implementations
//   - scanner: CSV discovery, producing file_list rows with checksum and size
//
// # Usage
//
//	fileScanner := scanner.NewScanner(checksum.New())
//	result, err := fileScanner.ScanDirectory("./data")
//	for _, ref := range result.Files {
//	    fmt.Println(ref.Path, ref.Checksum)
//	}
package files
