package tui

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dp-desktop/client/internal/generator"
	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/viewmodel"
)

var errUsage = errors.New("usage")

type command struct {
	usage string
	run   func(m *Model, args []string) error
}

var commands = map[string]command{
	"go":        {"go <view>", cmdGo},
	"pv":        {"pv add|rm <name>", cmdPv},
	"search":    {"search <text>", cmdSearch},
	"query":     {"query", cmdQuery},
	"provider":  {"provider <name>", cmdProvider},
	"gen-pv":    {"gen-pv <name> [integer|float|boolean|string] [periodMs] [initial] [maxStep]", cmdGenPv},
	"generate":  {"generate", cmdGenerate},
	"import":    {"import <path>", cmdImport},
	"ingest":    {"ingest", cmdIngest},
	"subscribe": {"subscribe <pv> <op> <value> [type]", cmdSubscribe},
	"reset":     {"reset", cmdReset},
}

// exec runs one command line and reports whether the shell should quit.
func (m *Model) exec(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		m.info("%s", help())
		return false
	}

	cmd, ok := commands[name]
	if !ok {
		m.fail(fmt.Errorf("unknown command %q, try help", name))
		return false
	}
	m.notice = ""
	if err := cmd.run(m, args); err != nil {
		if errors.Is(err, errUsage) {
			err = fmt.Errorf("usage: %s", cmd.usage)
		}
		m.fail(err)
	}
	return false
}

func help() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	usages := make([]string, len(names))
	for i, name := range names {
		usages[i] = commands[name].usage
	}
	return strings.Join(usages, " • ") + " • quit"
}

func cmdGo(m *Model, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	name := viewmodel.ViewName(args[0])
	if n, err := strconv.Atoi(args[0]); err == nil && n >= 1 && n <= len(viewmodel.ViewNames) {
		name = viewmodel.ViewNames[n-1]
	}
	return m.ctrl.SwitchTo(name)
}

func cmdPv(m *Model, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	name := strings.Join(args[1:], " ")
	switch args[0] {
	case "add":
		m.ctrl.PvExplore().AddPvName(name)
	case "rm":
		if !m.app.RemovePvName(name) {
			return fmt.Errorf("%s is not in the query list", name)
		}
	default:
		return errUsage
	}
	m.info("PVs: %s", orNone(strings.Join(m.app.PvNames(), ", ")))
	return nil
}

func cmdSearch(m *Model, args []string) error {
	text := strings.Join(args, " ")
	switch current := m.ctrl.Current.Get(); current {
	case viewmodel.ViewPvExplore:
		vm := m.ctrl.PvExplore()
		vm.SearchText.Set(text)
		vm.Search()
	case viewmodel.ViewProviderExplore:
		vm := m.ctrl.ProviderExplore()
		vm.Text.Set(text)
		vm.Search()
	case viewmodel.ViewDatasetExplore:
		vm := m.ctrl.DatasetExplore()
		vm.NameDescription.Set(text)
		vm.Search()
	case viewmodel.ViewAnnotationExplore:
		vm := m.ctrl.AnnotationExplore()
		vm.NameCommentEvent.Set(text)
		vm.Search()
	default:
		return fmt.Errorf("search is not available in %s", current)
	}
	return nil
}

func cmdQuery(m *Model, _ []string) error {
	if err := m.ctrl.SwitchTo(viewmodel.ViewDataExplore); err != nil {
		return err
	}
	m.ctrl.DataExplore().Query()
	return nil
}

func cmdProvider(m *Model, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	name := strings.Join(args, " ")
	switch current := m.ctrl.Current.Get(); current {
	case viewmodel.ViewDataGeneration:
		m.ctrl.DataGeneration().Provider.Name.Set(name)
	case viewmodel.ViewDataImport:
		m.ctrl.DataImport().Provider.Name.Set(name)
	default:
		return fmt.Errorf("provider is not available in %s", current)
	}
	return nil
}

func cmdGenPv(m *Model, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	g := m.ctrl.DataGeneration()
	g.ShowPvEntryPanel()
	g.PvName.Set(args[0])
	g.PvInitialValue.Set("0")
	g.PvMaxStep.Set("1")
	if len(args) > 1 {
		g.PvDataType.Set(generator.DataType(args[1]))
	}
	if len(args) > 2 {
		period, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid sample period %q", args[2])
		}
		g.PvSamplePeriod.Set(period)
	}
	if len(args) > 3 {
		g.PvInitialValue.Set(args[3])
	}
	if len(args) > 4 {
		g.PvMaxStep.Set(args[4])
	}
	if g.AddCurrentPvDetail() {
		m.info("Added %s", args[0])
	}
	return m.ctrl.SwitchTo(viewmodel.ViewDataGeneration)
}

func cmdGenerate(m *Model, _ []string) error {
	if err := m.ctrl.SwitchTo(viewmodel.ViewDataGeneration); err != nil {
		return err
	}
	m.ctrl.DataGeneration().Generate()
	return nil
}

func cmdImport(m *Model, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	if err := m.ctrl.SwitchTo(viewmodel.ViewDataImport); err != nil {
		return err
	}
	m.ctrl.DataImport().ImportFile(strings.Join(args, " "))
	return nil
}

func cmdIngest(m *Model, _ []string) error {
	if err := m.ctrl.SwitchTo(viewmodel.ViewDataImport); err != nil {
		return err
	}
	m.ctrl.DataImport().Ingest()
	return nil
}

func cmdSubscribe(m *Model, args []string) error {
	if len(args) < 3 {
		return errUsage
	}
	vm := m.ctrl.DataEventExplore()
	vm.PvName.Set(args[0])
	vm.Condition.Set(models.TriggerCondition(args[1]))
	vm.Value.Set(args[2])
	dataType := models.PvDataTypeDouble
	if len(args) > 3 {
		dataType = models.PvDataType(strings.ToUpper(args[3]))
	}
	vm.DataType.Set(dataType)
	if err := m.ctrl.SwitchTo(viewmodel.ViewDataEventExplore); err != nil {
		return err
	}
	vm.AddSubscription()
	return nil
}

func cmdReset(m *Model, _ []string) error {
	m.ctrl.Home().ResetApplicationState()
	m.info("Application state reset")
	return nil
}
