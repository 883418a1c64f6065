package i18n

// Message keys. Each key doubles as the en-US text unless english overrides it.
const (
	MsgDeleteAll        = "Delete All"
	MsgSave             = "Save"
	MsgCancel           = "Cancel"
	MsgEdit             = "Edit"
	MsgDelete           = "Delete"
	MsgAdded            = "Added: "
	MsgBy               = "by "
	MsgEmpty            = "Your shopping basket is empty"
	MsgConfirmDeleteAll = "Are you sure you want to delete all items?"
	MsgNo               = "No"
	MsgYes              = "Yes"
	MsgAddPlaceholder   = "Add an item"
	MsgAddItem          = "Add Item"
	MsgStopListening    = "Stop Listening"
	MsgStartVoice       = "Start Voice Input"
	MsgSwitchLocale     = "Switch to Malayalam"
	MsgLocaleBadge      = "Locale badge"
)

var malayalam = map[string]string{
	MsgDeleteAll:        "എല്ലാം നീക്കം ചെയ്യുക",
	MsgSave:             "സേവ് ചെയ്യുക",
	MsgCancel:           "റദ്ദാക്കുക",
	MsgEdit:             "തിരുത്തുക",
	MsgDelete:           "നീക്കം ചെയ്യുക",
	MsgAdded:            "ചേർത്തത്: ",
	MsgBy:               "ആരാൽ ",
	MsgEmpty:            "നിങ്ങളുടെ ഷോപ്പിംഗ് കർട്ട് ശൂന്യമാണ്",
	MsgConfirmDeleteAll: "എല്ലാ ഇനങ്ങളും നീക്കം ചെയ്യണമെന്ന് തീർച്ചയാണോ?",
	MsgNo:               "ഇല്ല",
	MsgYes:              "അതെ",
	MsgAddPlaceholder:   "ഒരു ഇനം ചേർക്കുക",
	MsgAddItem:          "ഇനം ചേർക്കുക",
	MsgStopListening:    "കേൾക്കുന്നത് നിർത്തുക",
	MsgStartVoice:       "വോയ്‌സ് ഇൻപുട്ട് ആരംഭിക്കുക",
	MsgSwitchLocale:     "Switch to English",
	MsgLocaleBadge:      "En",
}

var english = map[string]string{
	MsgLocaleBadge: "മ",
}

// Terminal-only messages. Without a translation the printer falls back to the key.
const (
	MsgSignInPrompt = "Open this URL in a browser to sign in:"
	MsgSignedOut    = "Signed out."
	MsgNoAccess     = "Signed in as %s, but this account has no access to the list yet."
	MsgStatus       = "Signed in as %s (%s)."
	MsgNotSignedIn  = "Not signed in."
	MsgListening    = "Listening (%s)... press Ctrl+C to stop."
	MsgNoVoice      = "Speech recognition is not available on this device."
	MsgItemCount    = "%d items"
)
