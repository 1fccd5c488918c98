// Badger inspector: dumps stored messages as a table for debugging.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

type diskMessage struct {
	ID         string    `json:"id"`
	ChannelID  string    `json:"channelId"`
	SenderName string    `json:"senderName"`
	Content    string    `json:"content"`
	IsDeleted  bool      `json:"isDeleted"`
	CreatedAt  time.Time `json:"createdAt"`
}

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithReadOnly(true))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Channel", "Sender", "Content", "Deleted", "Created At"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				var m diskMessage
				if err := json.Unmarshal(v, &m); err != nil {
					// Log and keep scanning instead of stopping the dump.
					fmt.Printf("Error unmarshaling key %s: %v\n", string(it.Item().Key()), err)
					return nil
				}
				table.Append([]string{
					m.ChannelID,
					m.SenderName,
					m.Content,
					fmt.Sprintf("%t", m.IsDeleted),
					m.CreatedAt.Format(time.RFC3339),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}
