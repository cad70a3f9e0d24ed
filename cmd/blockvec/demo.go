package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/blockvec/mem/alloc"
	"github.com/joshuapare/blockvec/mem/darray"
)

var (
	demoCount int
	demoLang  string
)

// Person is the record type the demo stores. Its string field keeps it in
// managed slots, unlike the int array which is placed in allocator memory.
type Person struct {
	Name   string  `json:"name"`
	Age    int     `json:"age"`
	Salary float64 `json:"salary"`
}

type demoResult struct {
	Ints   []int       `json:"ints"`
	People []Person    `json:"people"`
	First  Person      `json:"first"`
	Second Person      `json:"second"`
	Stats  alloc.Stats `json:"stats"`
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the int and Person array demonstration",
	Long: `The demo command fills an int array with squares and a Person array with
three records, then walks both with the forward iterator. Both arrays share
one block-list allocator.

Example:
  blockvec demo
  blockvec demo --count 20 --json
  blockvec demo --lang de
  blockvec demo --backing mmap --verbose`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDemo()
	},
}

func init() {
	demoCmd.Flags().IntVarP(&demoCount, "count", "n", 10, "Number of squares to append")
	demoCmd.Flags().StringVar(&demoLang, "lang", "", "BCP 47 tag for locale-formatted salaries (default: plain numbers)")
	rootCmd.AddCommand(demoCmd)
}

func runDemo() (err error) {
	if demoCount < 0 {
		return fmt.Errorf("--count must not be negative, got %d", demoCount)
	}
	var p *message.Printer
	if demoLang != "" {
		tag, err := language.Parse(demoLang)
		if err != nil {
			return fmt.Errorf("parse --lang %q: %w", demoLang, err)
		}
		p = message.NewPrinter(tag)
	}

	bl, err := newAllocator()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, bl.Close()) }()

	ints := darray.New[int](bl, nil)
	defer func() { err = errors.Join(err, ints.Close()) }()
	for i := range demoCount {
		if err := ints.Append(i * i); err != nil {
			return fmt.Errorf("append %d: %w", i*i, err)
		}
	}

	people := darray.New[Person](bl, nil)
	defer func() { err = errors.Join(err, people.Close()) }()
	for _, rec := range []Person{
		{Name: "Alice", Age: 25, Salary: 50000},
		{Name: "Bob", Age: 30, Salary: 60000},
		{Name: "Charlie", Age: 35, Salary: 70000},
	} {
		if err := people.Emplace(func(slot *Person) error {
			*slot = rec
			return nil
		}); err != nil {
			return fmt.Errorf("emplace %s: %w", rec.Name, err)
		}
	}

	it := people.Begin()
	first := *it.Value()
	second := *it.Next().Value()

	if jsonOut {
		res := demoResult{
			Ints:   append([]int{}, ints.Slice()...),
			People: append([]Person{}, people.Slice()...),
			First:  first,
			Second: second,
			Stats:  bl.Stats(),
		}
		return printJSON(res)
	}

	printInfo("=== Demonstration with int ===\n")
	printInfo("Int array: ")
	for it, end := ints.Begin(), ints.End(); !it.Equal(end); it.Next() {
		printInfo("%d ", *it.Value())
	}
	printInfo("\n")

	printInfo("\n=== Demonstration with Person ===\n")
	printInfo("Person array: \n")
	for _, person := range people.All() {
		printInfo("  %s\n", formatPerson(p, person))
	}

	printInfo("\n=== Iterator demonstration ===\n")
	printInfo("First person: %s\n", formatPerson(p, &first))
	printInfo("Second person: %s\n", formatPerson(p, &second))

	s := bl.Stats()
	printVerbose("\nAllocator: %d acquisitions (%d bytes), %d reuses, %d splits\n",
		s.Acquisitions, s.AcquiredBytes, s.Reuses, s.Splits)
	printVerbose("  allocated: %d blocks, %d bytes\n", s.AllocatedBlocks, s.AllocatedBytes)
	printVerbose("  free:      %d blocks, %d bytes\n", s.FreeBlocks, s.FreeBytes)
	return nil
}

// formatPerson renders person with p, or with plain fmt verbs when p is nil.
func formatPerson(p *message.Printer, person *Person) string {
	if p == nil {
		return fmt.Sprintf("Person{name: %s, age: %d, salary: %v}", person.Name, person.Age, person.Salary)
	}
	return p.Sprintf("Person{name: %s, age: %d, salary: %v}", person.Name, person.Age, person.Salary)
}
