// Copyright 2026 OpenPoints Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plugin

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ProcessConfig applies plugin option values from a parsed config file. The
// outer map key is the plugin type name, the next is the plugin name, and
// the inner map holds option values keyed by option name.
func ProcessConfig(cfg map[string]map[string]map[string]any) error {
	for typeName, pluginConfigs := range cfg {
		pluginType, err := pluginTypeByName(typeName)
		if err != nil {
			return err
		}
		for pluginName, options := range pluginConfigs {
			for optName, optValue := range options {
				opt := findPluginOption(pluginType, pluginName, optName)
				if opt == nil {
					return fmt.Errorf(
						"unknown option %q for %s plugin %q",
						optName,
						typeName,
						pluginName,
					)
				}
				value, err := coerceOptionValue(opt.Type, optValue)
				if err != nil {
					return fmt.Errorf(
						"option %q for %s plugin %q: %w",
						optName,
						typeName,
						pluginName,
						err,
					)
				}
				if err := SetPluginOption(
					pluginType,
					pluginName,
					optName,
					value,
				); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ProcessEnvVars applies plugin option values from environment variables.
// Variable names follow the pattern TALLY_<TYPE>_<PLUGIN>_<OPTION>, e.g.
// TALLY_BLOB_BADGER_DATA_DIR.
func ProcessEnvVars() error {
	for _, entry := range pluginEntries {
		for _, opt := range entry.Options {
			envName := strings.ToUpper(
				strings.NewReplacer("-", "_").Replace(
					fmt.Sprintf(
						"tally_%s_%s_%s",
						PluginTypeName(entry.Type),
						entry.Name,
						opt.Name,
					),
				),
			)
			envValue, ok := os.LookupEnv(envName)
			if !ok {
				continue
			}
			value, err := parseOptionValue(opt.Type, envValue)
			if err != nil {
				return fmt.Errorf("%s: %w", envName, err)
			}
			if err := SetPluginOption(
				entry.Type,
				entry.Name,
				opt.Name,
				value,
			); err != nil {
				return err
			}
		}
	}
	return nil
}

func pluginTypeByName(name string) (PluginType, error) {
	switch name {
	case "blob":
		return PluginTypeBlob, nil
	case "metadata":
		return PluginTypeMetadata, nil
	default:
		return 0, fmt.Errorf("unknown plugin type: %s", name)
	}
}

func findPluginOption(
	pluginType PluginType,
	pluginName string,
	optionName string,
) *PluginOption {
	for i := range pluginEntries {
		entry := &pluginEntries[i]
		if entry.Type != pluginType || entry.Name != pluginName {
			continue
		}
		for j := range entry.Options {
			if entry.Options[j].Name == optionName {
				return &entry.Options[j]
			}
		}
	}
	return nil
}

// coerceOptionValue converts a YAML-decoded value into the exact type the
// option destination expects
func coerceOptionValue(
	optType PluginOptionType,
	value any,
) (any, error) {
	switch optType {
	case PluginOptionTypeString:
		if v, ok := value.(string); ok {
			return v, nil
		}
	case PluginOptionTypeBool:
		if v, ok := value.(bool); ok {
			return v, nil
		}
	case PluginOptionTypeInt:
		switch v := value.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		}
	case PluginOptionTypeUint:
		switch v := value.(type) {
		case uint64:
			return v, nil
		case int:
			if v >= 0 {
				return uint64(v), nil
			}
		case int64:
			if v >= 0 {
				return uint64(v), nil
			}
		}
	}
	return nil, fmt.Errorf("incompatible value type %T", value)
}

// parseOptionValue parses a string value into the type the option
// destination expects
func parseOptionValue(
	optType PluginOptionType,
	value string,
) (any, error) {
	switch optType {
	case PluginOptionTypeString:
		return value, nil
	case PluginOptionTypeBool:
		return strconv.ParseBool(value)
	case PluginOptionTypeInt:
		return strconv.Atoi(value)
	case PluginOptionTypeUint:
		return strconv.ParseUint(value, 10, 64)
	default:
		return nil, fmt.Errorf("unknown plugin option type %d", optType)
	}
}
