package leveldb

func story(key string, episode int, name, location string, aliases ...string) Entry {
	return Entry{Key: key, Episode: episode, EpisodeName: name, Location: location, Type: TypeStory, Aliases: aliases}
}

func extra(key, typ, location string, aliases ...string) Entry {
	return Entry{Key: key, EpisodeName: typ, Location: location, Type: typ, Aliases: aliases}
}

// Default returns the built-in F.E.A.R campaign table.
func Default() *Database {
	return New([]Entry{
		story("Intro.World00p", 1, "Initiation", "Abandoned House", "Intro", "Start", "Beginning", "Training"),
		story("Docks.World00p", 2, "Origination", "Incident at the Port", "Docks", "Port", "Harbor", "Warehouse"),

		story("WTF_Entry.World00p", 3, "Escalation", "Drainage Gallery", "WTF_Entry", "Psychic_Area", "Alma_Domain", "Distortion"),
		story("Vault.World00p", 3, "Investigation", "Data Vault", "Vault", "Archive", "Data_Vault", "Secure_Storage"),

		story("Moody.World00p", 4, "Invasion", "Moody Office Building", "Moody", "Office", "Armacham_Tower", "Corporate"),
		story("ATC_Roof.World00p", 4, "Invasion", "Assault | ATC Roof", "ATC_Roof", "MP_Roof"),
		story("Admin.World00p", 4, "Invasion", "Guardians | Administration Block", "Admin", "Command_Center", "Fettel_Room", "Final_Approach"),
		story("Facility_Upper.World00p", 4, "Invasion", "ATC Upper Floors", "Facility_Upper", "ATC_Upper", "HQ", "Upper_Floor"),
		story("Facility_Bypass.World00p", 4, "Invasion", "Facility Bypass", "Facility_Bypass", "Ventilation", "Service_Tunnel", "Bypass"),

		story("Bishop_Evac.World00p", 5, "Extraction", "Surprise Strike", "Bishop_Evac", "MP_Evac"),
		story("Bishop_Rescue.World00p", 5, "Extraction", "Rescuing Bishop", "Bishop_Rescue", "MP_Rescue"),
		story("WTF_Ambush.World00p", 5, "Confrontation", "Corridor Ambush", "WTF_Ambush", "Hallway", "Ambush", "Corridor"),
		story("WTF_Exfil.World00p", 5, "Confrontation", "Evacuation", "WTF_Exfil", "Escape", "Exfiltration", "Exit"),

		story("Mapes_Elevator.World00p", 6, "Interception", "Sayonara Strike | ATC Offices", "Mapes_Elevator", "Elevator", "Maintenance_Shaft", "Descent"),
		story("Badge.World00p", 6, "Interception", "Unidentified Intruders", "Badge", "MP_Badge"),
		story("Hives.World00p", 6, "Interception", "Shadow of the Past | Hive Laboratory", "Hives", "Laboratory", "Clone_Lab", "Experiment"),
		story("Alma.World00p", 6, "Resolution", "Alma's Lair", "Alma", "Final_Boss", "Confrontation", "Ending"),
		story("Aftermath.World00p", 6, "Resolution", "Aftermath", "Aftermath", "Explosion", "Collapse", "Epilogue"),

		story("Alice.World00p", 7, "Alteration", "Alice Wade | Evacuation", "Alice", "Nursery", "Child_Room", "Vision"),
		story("Getting_Out.World00p", 7, "Alteration", "Breakout | ATC Roof", "Getting_Out", "Escape"),

		story("Wades.World00p", 8, "Desolation", "Slums | Abandoned House", "Wades", "Executive_Office", "Wade_Room", "Armacham_HQ"),
		story("Factory.World00p", 8, "Desolation", "Entry Point | Clone Factory", "Factory", "Clone_Factory", "Production_Line", "Replica_Plant"),

		extra("FEAR_SP_Demo_Intro.World00p", TypeDemo, "Introduction (demo)", "FEAR_SP_Demo_Intro", "Demo_Start"),
		extra("FEAR_SP_Demo_World00p", TypeDemo, "Main level (demo)", "FEAR_SP_Demo_World00p", "Demo_Main"),
		extra("E3_Demo_2005_Short.World00p", TypeDemo, "E3 2005 (short)", "E3_Demo_2005_Short", "E3_2005"),
		extra("Dock_005_Short.World00p", TypeMultiplayer, "Short Dock", "Dock_005_Short", "MP_Short_Dock"),
		extra("Performance_World00p", TypeTest, "Performance", "Performance_World00p", "Test_Performance"),
		extra("Performance_Combat.World00p", TypeTest, "Combat Performance", "Performance_Combat", "Test_Combat"),
	})
}
