package main

// Version is the application version string, shown in the title bar
// and the about dialog. Updated by the release workflow.
const Version = "1.2.0"
