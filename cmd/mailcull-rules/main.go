// Command mailcull-rules manages the persisted retention rule set:
//
//	mailcull-rules list
//	mailcull-rules add -age y:1 -label news [-action delete] [-generate-label]
//	mailcull-rules rm -id 2
//	mailcull-rules label -id 2 [-add extra] [-remove old]
//	mailcull-rules action -id 2 -set delete
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mkern/mailcull/internal/config"
	"github.com/mkern/mailcull/internal/retention"
	"github.com/mkern/mailcull/internal/rules"
	"github.com/mkern/mailcull/internal/runtime"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		runtime.DefaultLogger().Error("mailcull-rules failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: mailcull-rules <list|add|rm|label|action> [flags]")
	}
	defaults := config.Load()
	store := rules.Store{Path: defaults.RulesPath}

	verb, rest := args[0], args[1:]
	switch verb {
	case "list":
		return list(store)
	case "add":
		return add(store, rest)
	case "rm":
		return remove(store, rest)
	case "label":
		return label(store, rest)
	case "action":
		return action(store, rest)
	}
	return fmt.Errorf("unknown command %q", verb)
}

func list(store rules.Store) error {
	set, err := store.Load()
	if err != nil {
		return err
	}
	if set.Len() == 0 {
		fmt.Println("No rules configured.")
		return nil
	}
	for _, rule := range set.All() {
		fmt.Println(rule.Describe())
	}
	return nil
}

func add(store rules.Store, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	age := fs.String("age", "", "retention age token, e.g. y:1, m:6, w:2, d:30")
	labelName := fs.String("label", "", "label the rule targets")
	actionName := fs.String("action", "trash", "disposal action: trash or delete")
	generate := fs.Bool("generate-label", false, "mark disposed messages so re-runs skip them")
	if err := fs.Parse(args); err != nil {
		return err
	}

	policy, err := retention.NewPolicy(*age, *generate)
	if err != nil {
		return err
	}
	act, err := rules.ParseAction(*actionName)
	if err != nil {
		return err
	}

	set, err := store.Load()
	if err != nil {
		return err
	}
	rule, err := set.Add(0, policy, *labelName, act)
	if err != nil {
		return err
	}
	if err := store.Save(set); err != nil {
		return err
	}
	fmt.Println(rule.Describe())
	return nil
}

func remove(store rules.Store, args []string) error {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	id := fs.Int("id", 0, "rule id to remove")
	if err := fs.Parse(args); err != nil {
		return err
	}

	set, err := store.Load()
	if err != nil {
		return err
	}
	if err := set.Remove(*id); err != nil {
		return err
	}
	if err := store.Save(set); err != nil {
		return err
	}
	fmt.Printf("Rule #%d removed.\n", *id)
	return nil
}

func label(store rules.Store, args []string) error {
	fs := flag.NewFlagSet("label", flag.ExitOnError)
	id := fs.Int("id", 0, "rule id to modify")
	add := fs.String("add", "", "label to add")
	rm := fs.String("remove", "", "label to remove")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *add == "" && *rm == "" {
		return fmt.Errorf("label: nothing to do; pass -add and/or -remove")
	}

	set, err := store.Load()
	if err != nil {
		return err
	}
	if *add != "" {
		if err := set.AddLabel(*id, *add); err != nil {
			return err
		}
	}
	if *rm != "" {
		if err := set.RemoveLabel(*id, *rm); err != nil {
			return err
		}
	}
	if err := store.Save(set); err != nil {
		return err
	}
	rule, err := set.Get(*id)
	if err != nil {
		return err
	}
	fmt.Println(rule.Describe())
	return nil
}

func action(store rules.Store, args []string) error {
	fs := flag.NewFlagSet("action", flag.ExitOnError)
	id := fs.Int("id", 0, "rule id to modify")
	name := fs.String("set", "", "disposal action: trash or delete")
	if err := fs.Parse(args); err != nil {
		return err
	}

	act, err := rules.ParseAction(*name)
	if err != nil {
		return err
	}
	set, err := store.Load()
	if err != nil {
		return err
	}
	if err := set.SetAction(*id, act); err != nil {
		return err
	}
	if err := store.Save(set); err != nil {
		return err
	}
	fmt.Printf("Action set to `%s` on rule #%d.\n", act, *id)
	return nil
}
