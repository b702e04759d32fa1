package kstate

import (
	"os"
	"path/filepath"

	"github.com/karufm/karu/pkg/fsutils"
)

const defaultSettingsDir = "~/.karu"
const stateFileName = "karu-state.json"

var settingsDir = defaultSettingsDir
var settingsDirPath = fsutils.ExpandHome(settingsDir)

// State is the persisted session: enough to reopen where the user
// left off.
type State struct {
	CurrentDir      string `json:"current_dir,omitempty"`
	CurrentFileName string `json:"current_file_name,omitempty"`
	ShowHidden      bool   `json:"show_hidden,omitempty"`
}

func getStateFilePath() string {
	return filepath.Join(settingsDirPath, stateFileName)
}

var logErr = func(v ...any) {
}

func GetState() (*State, error) {
	filePath := getStateFilePath()
	var state State
	return &state, readJSON(filePath, false, &state)
}

func SaveCurrentDir(currentDir, currentFileName string) {
	saveSettingValue(func(state *State) {
		state.CurrentDir = currentDir
		state.CurrentFileName = currentFileName
	})
}

func SaveShowHidden(show bool) {
	saveSettingValue(func(state *State) {
		state.ShowHidden = show
	})
}

var readJSON = fsutils.ReadJSONFile
var writeJSON = fsutils.WriteJSONFile

func saveSettingValue(f func(state *State)) {
	filePath := getStateFilePath()
	var state State
	err := readJSON(filePath, false, &state)
	if err != nil {
		logErr("saveSettingValue: Error reading state file:", err)
	}

	if dirInfo, err := os.Stat(settingsDirPath); err != nil {
		if os.IsNotExist(err) {
			if err = os.MkdirAll(settingsDirPath, os.ModePerm); err != nil {
				logErr("saveSettingValue: Error creating settings directory:", err)
				return
			}
		}
	} else if !dirInfo.IsDir() {
		logErr("saveSettingValue: Settings path is not a directory")
		return
	}

	f(&state)
	if err := writeJSON(filePath, state); err != nil {
		logErr("saveSettingValue: Error writing state file:", err)
		return
	}
}
