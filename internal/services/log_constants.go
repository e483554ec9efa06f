package services

const (
	LogActionReportSave      = "REPORT_SAVE"
	LogActionReportPublish   = "REPORT_PUBLISH"
	LogActionReportArchive   = "REPORT_ARCHIVE"
	LogActionReportDelete    = "REPORT_DELETE"
	LogActionReferenceCreate = "REFERENCE_CREATE"
	LogActionNameResolution  = "NAME_RESOLUTION"
	LogActionProducerImport  = "PRODUCER_IMPORT"
	LogActionInsightCompose  = "INSIGHT_COMPOSE"
	LogActionArchiveSweep    = "ARCHIVE_SWEEP"
	LogOutcomeSuccess        = "SUCCESS"
	LogOutcomeFail           = "FAIL"
	LogOutcomeWarn           = "WARN"
)
