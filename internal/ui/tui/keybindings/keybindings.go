package keybindings

import tea "github.com/charmbracelet/bubbletea"

// Action represents a specific action that can be triggered by a key
type Action string

// Define all possible actions
const (
	// Global actions
	ActionQuit       Action = "quit"
	ActionToggleHelp Action = "toggle_help"
	ActionBack       Action = "back" // General purpose "go back" or "cancel"

	// Navigation actions
	ActionMoveUp     Action = "move_up"
	ActionMoveDown   Action = "move_down"
	ActionPageUp     Action = "page_up"
	ActionPageDown   Action = "page_down"
	ActionMoveTop    Action = "move_top"
	ActionMoveBottom Action = "move_bottom"

	// Player actions
	ActionBigBackward   Action = "big_backward"
	ActionSmallBackward Action = "small_backward"
	ActionSmallForward  Action = "small_forward"
	ActionBigForward    Action = "big_forward"
	ActionPrevious      Action = "previous"
	ActionNext          Action = "next"
	ActionPlayPause     Action = "play_pause"
	ActionOpenSeek      Action = "open_seek"
	ActionOpenPlaylist  Action = "open_playlist"

	// Dialog actions
	ActionConfirm Action = "confirm"

	// Search mode actions
	ActionEnableSearch   Action = "enable_search"
	ActionSearchComplete Action = "search_complete"
)

// ContextName represents a specific UI context in the application that has its own keybinds
type ContextName string

const (
	ContextGlobal     ContextName = "global"
	ContextPlayer     ContextName = "player"
	ContextSeek       ContextName = "seek"
	ContextPlaylist   ContextName = "playlist"
	ContextSearchMode ContextName = "search_mode"
	ContextHelp       ContextName = "help"
)

var ContextBindings = map[ContextName][]Binding{
	ContextGlobal:     globalBindings,
	ContextPlayer:     playerBindings,
	ContextSeek:       seekBindings,
	ContextPlaylist:   playlistBindings,
	ContextSearchMode: searchModeBindings,
	ContextHelp:       helpBindings,
}

// KeyMap stores the mappings from actions to key sequences for each context
type KeyMap struct {
	Primary   string
	Secondary string // Optional alternative key
	Help      string // Description for help screen
}

// Binding maps an action to its keys and help text
type Binding struct {
	Action Action
	KeyMap KeyMap
}

// navigationBindings contains general navigation bindings for consistent navigation across the app
var navigationBindings = []Binding{
	{
		Action: ActionMoveUp,
		KeyMap: KeyMap{
			Primary:   "up",
			Secondary: "k",
			Help:      "Move cursor up",
		},
	},
	{
		Action: ActionMoveDown,
		KeyMap: KeyMap{
			Primary:   "down",
			Secondary: "j",
			Help:      "Move cursor down",
		},
	},
	{
		Action: ActionPageUp,
		KeyMap: KeyMap{
			Primary: "pgup",
			Help:    "Move up one page",
		},
	},
	{
		Action: ActionPageDown,
		KeyMap: KeyMap{
			Primary: "pgdown",
			Help:    "Move down one page",
		},
	},
	{
		Action: ActionMoveTop,
		KeyMap: KeyMap{
			Primary: "home",
			Help:    "Move top of view",
		},
	},
	{
		Action: ActionMoveBottom,
		KeyMap: KeyMap{
			Primary: "end",
			Help:    "Move bottom of view",
		},
	},
}

// globalBindings contains key bindings that work across all views
var globalBindings = []Binding{
	{
		Action: ActionQuit,
		KeyMap: KeyMap{
			Primary: "ctrl+c",
			Help:    "Stop playback and quit",
		},
	},
	{
		Action: ActionToggleHelp,
		KeyMap: KeyMap{
			Primary: "ctrl+h",
			Help:    "Toggle help",
		},
	},
}

// playerBindings are active on the main playback screen
var playerBindings = []Binding{
	{
		Action: ActionQuit,
		KeyMap: KeyMap{
			Primary: "q",
			Help:    "Stop playback and quit",
		},
	},
	{
		Action: ActionToggleHelp,
		KeyMap: KeyMap{
			Primary: "?",
			Help:    "Toggle help",
		},
	},
	{
		Action: ActionBigBackward,
		KeyMap: KeyMap{
			Primary: "<",
			Help:    "Jump back a lot",
		},
	},
	{
		Action: ActionSmallBackward,
		KeyMap: KeyMap{
			Primary: ",",
			Help:    "Jump back a little",
		},
	},
	{
		Action: ActionSmallForward,
		KeyMap: KeyMap{
			Primary: ".",
			Help:    "Jump forward a little",
		},
	},
	{
		Action: ActionBigForward,
		KeyMap: KeyMap{
			Primary: ">",
			Help:    "Jump forward a lot",
		},
	},
	{
		Action: ActionPrevious,
		KeyMap: KeyMap{
			Primary:   "[",
			Secondary: "pgup",
			Help:      "Previous playlist item",
		},
	},
	{
		Action: ActionNext,
		KeyMap: KeyMap{
			Primary:   "]",
			Secondary: "pgdown",
			Help:      "Next playlist item",
		},
	},
	{
		Action: ActionPlayPause,
		KeyMap: KeyMap{
			Primary: " ",
			Help:    "Pause or resume",
		},
	},
	{
		Action: ActionOpenSeek,
		KeyMap: KeyMap{
			// Digits open the dialog as well, see IsSeekStart
			Primary: "-",
			Help:    "Seek by a relative time (or type a digit)",
		},
	},
	{
		Action: ActionOpenPlaylist,
		KeyMap: KeyMap{
			Primary: "/",
			Help:    "Pick a playlist item",
		},
	},
}

// seekBindings are active while the seek dialog is open
var seekBindings = []Binding{
	{
		Action: ActionConfirm,
		KeyMap: KeyMap{
			Primary: "enter",
			Help:    "Seek by the entered time",
		},
	},
	{
		Action: ActionBack,
		KeyMap: KeyMap{
			Primary: "esc",
			Help:    "Close without seeking",
		},
	},
}

// playlistBindings are active in the playlist picker
var playlistBindings = withNavigation([]Binding{
	{
		Action: ActionConfirm,
		KeyMap: KeyMap{
			Primary: "enter",
			Help:    "Play the selected item",
		},
	},
	{
		Action: ActionEnableSearch,
		KeyMap: KeyMap{
			Primary: "/",
			Help:    "Filter items",
		},
	},
	{
		Action: ActionBack,
		KeyMap: KeyMap{
			Primary: "esc",
			Help:    "Close the playlist",
		},
	},
})

// helpBindings contains key bindings specific to the help view
var helpBindings = withNavigation([]Binding{
	{
		Action: ActionBack,
		KeyMap: KeyMap{
			Primary:   "esc",
			Secondary: "?",
			Help:      "Close help",
		},
	},
})

// searchModeBindings contains key bindings specific for when search mode is active
var searchModeBindings = []Binding{
	{
		Action: ActionBack,
		KeyMap: KeyMap{
			Primary: "esc",
			Help:    "Exit search mode and remove the filter",
		},
	},
	{
		Action: ActionSearchComplete,
		KeyMap: KeyMap{
			Primary: "enter",
			Help:    "Apply the search filter and return control to the list",
		},
	},
}

// IsSeekStart reports whether a key opens the seek dialog with the key as the first character
func IsSeekStart(keyMsg tea.KeyMsg) bool {
	key := keyMsg.String()
	return key == "-" || (len(key) == 1 && key[0] >= '0' && key[0] <= '9')
}

// GetActionKey returns the primary key for an action
func GetActionKey(action Action, bindings []Binding) string {
	for _, binding := range bindings {
		if binding.Action == action {
			return binding.KeyMap.Primary
		}
	}
	return ""
}

// GetActionByKey returns just the action for a given key, or an empty Action if not found
func GetActionByKey(keyMsg tea.KeyMsg, name ContextName) Action {
	if bindings, exists := ContextBindings[name]; exists {
		key := keyMsg.String()
		for _, binding := range bindings {
			if binding.KeyMap.Primary == key || binding.KeyMap.Secondary == key {
				return binding.Action
			}
		}
	}
	return ""
}

// DisplayKey renders a key for help text, spelling out keys that are invisible
func DisplayKey(key string) string {
	if key == " " {
		return "space"
	}
	return key
}

// withNavigation is a helper function to include navigation bindings in other binding sets
func withNavigation(bindings []Binding) []Binding {
	return append(append([]Binding{}, navigationBindings...), bindings...)
}
