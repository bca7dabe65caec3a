package i18n

var catalogs = map[string]map[string]string{
	"en": {
		"job_status_initializing":             "Initializing...",
		"job_status_polling":                  "Generation started, waiting for the result...",
		"job_status_completed_single":         "Completed",
		"job_status_failed_single":            "Failed",
		"video_job_status_message_processing": "Processing video... (state: {state})",
		"music_job_status_composing":          "Composing the melody...",
		"music_job_status_adding_instruments": "Adding instruments...",

		"error_gemini_api_key_not_set": "Google Gemini API Key is not set. Please add it in the Settings page.",
		"error_suno_api_key_not_set":   "Suno API Key is not set. Please add it in the Settings page.",
		"error_make_api_key_not_set":   "Make.com API Key is not configured.",
		"error_openai_api_key_not_set": "OpenAI API Key is not set. Please add it in the Settings page.",
		"search_prompt_error":          "Please enter a search query.",
		"search_failed":                "Failed to get response: {error}",
		"chat_message_empty":           "Please enter a message.",

		"chat_interface_initial_message": "Hello! How can I help you today?",
		"agent_session_title":            "{persona} Chat",

		"persona_helpful_assistant_name":        "Helpful Assistant",
		"persona_helpful_assistant_desc":        "A friendly assistant for everyday questions.",
		"persona_helpful_assistant_instruction": "You are a helpful, friendly assistant. Answer clearly and concisely.",
		"persona_creative_writer_name":          "Creative Writer",
		"persona_creative_writer_desc":          "Stories, poems and imaginative prose.",
		"persona_creative_writer_instruction":   "You are a creative writer. Respond with vivid, imaginative and well-structured prose.",
		"persona_code_wizard_name":              "Code Wizard",
		"persona_code_wizard_desc":              "Explains, writes and reviews code.",
		"persona_code_wizard_instruction":       "You are an expert software engineer. Provide correct, idiomatic code with short explanations.",
		"persona_sarcastic_bot_name":            "Sarcastic Bot",
		"persona_sarcastic_bot_desc":            "Helpful, with an attitude.",
		"persona_sarcastic_bot_instruction":     "You are a witty, sarcastic assistant. Stay helpful while adding dry humor.",
	},
	"de": {
		"job_status_initializing":             "Initialisiere...",
		"job_status_polling":                  "Generierung gestartet, warte auf das Ergebnis...",
		"job_status_completed_single":         "Abgeschlossen",
		"job_status_failed_single":            "Fehlgeschlagen",
		"video_job_status_message_processing": "Video wird verarbeitet... (Status: {state})",
		"music_job_status_composing":          "Melodie wird komponiert...",
		"music_job_status_adding_instruments": "Instrumente werden hinzugefügt...",

		"error_gemini_api_key_not_set": "Der Google Gemini API-Schlüssel ist nicht gesetzt. Bitte in den Einstellungen hinzufügen.",
		"error_suno_api_key_not_set":   "Der Suno API-Schlüssel ist nicht gesetzt. Bitte in den Einstellungen hinzufügen.",
		"error_make_api_key_not_set":   "Der Make.com API-Schlüssel ist nicht konfiguriert.",
		"error_openai_api_key_not_set": "Der OpenAI API-Schlüssel ist nicht gesetzt. Bitte in den Einstellungen hinzufügen.",
		"search_prompt_error":          "Bitte eine Suchanfrage eingeben.",
		"search_failed":                "Antwort konnte nicht abgerufen werden: {error}",
		"chat_message_empty":           "Bitte eine Nachricht eingeben.",

		"chat_interface_initial_message": "Hallo! Wie kann ich Ihnen heute helfen?",
		"agent_session_title":            "{persona}-Chat",

		"persona_helpful_assistant_name":        "Hilfreicher Assistent",
		"persona_helpful_assistant_desc":        "Ein freundlicher Assistent für alltägliche Fragen.",
		"persona_helpful_assistant_instruction": "Du bist ein hilfsbereiter, freundlicher Assistent. Antworte klar und knapp.",
		"persona_creative_writer_name":          "Kreativer Autor",
		"persona_creative_writer_desc":          "Geschichten, Gedichte und fantasievolle Texte.",
		"persona_creative_writer_instruction":   "Du bist ein kreativer Autor. Antworte mit lebendiger, fantasievoller und gut strukturierter Prosa.",
		"persona_code_wizard_name":              "Code-Zauberer",
		"persona_code_wizard_desc":              "Erklärt, schreibt und prüft Code.",
		"persona_code_wizard_instruction":       "Du bist ein erfahrener Softwareentwickler. Liefere korrekten, idiomatischen Code mit kurzen Erklärungen.",
		"persona_sarcastic_bot_name":            "Sarkastischer Bot",
		"persona_sarcastic_bot_desc":            "Hilfreich, mit Attitüde.",
		"persona_sarcastic_bot_instruction":     "Du bist ein witziger, sarkastischer Assistent. Bleib hilfreich und füge trockenen Humor hinzu.",
	},
}
