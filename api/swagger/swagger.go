package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Edufam Timetable Engine API",
        "description": "Timetable generation, conflict detection, and publish lifecycle for school scopes.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Timetable", "description": "Generation runs and version lifecycle"},
        {"name": "Conflicts", "description": "Conflict inspection and standalone detection"},
        {"name": "Exports", "description": "CSV exports with signed download links"},
        {"name": "Scheduling Config", "description": "Per-school scheduling parameters"},
        {"name": "Constraints", "description": "Availability windows and subject requirements"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/timetable/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate a timetable draft",
                "description": "Runs the solver for one scope and persists the result as a new draft version. One run per scope at a time.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "A run is already in progress for this scope"},
                    "422": {"description": "School has no usable schedule configuration"}
                }
            }
        },
        "/timetable/active": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get the published version of a scope",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"},
                    {"name": "academicYear", "in": "query", "required": true, "type": "string"},
                    {"name": "term", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No published timetable for this scope"}
                }
            }
        },
        "/timetable/versions": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List versions",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "query", "type": "string"},
                    {"name": "academicYear", "in": "query", "type": "string"},
                    {"name": "term", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["DRAFT", "PUBLISHED", "SUPERSEDED", "DISCARDED"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"},
                    {"name": "sortBy", "in": "query", "type": "string"},
                    {"name": "sortOrder", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/versions/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get a version",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Version not found"}
                }
            },
            "delete": {
                "tags": ["Timetable"],
                "summary": "Discard a draft version",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Version not found"},
                    "409": {"description": "Version is not a draft"}
                }
            }
        },
        "/timetable/versions/{id}/entries": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List the entries of a version",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Version not found"}
                }
            }
        },
        "/timetable/versions/{id}/conflicts": {
            "get": {
                "tags": ["Conflicts"],
                "summary": "List the conflicts of a version",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "severity", "in": "query", "type": "string", "enum": ["HIGH", "MEDIUM", "LOW"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Version not found"}
                }
            }
        },
        "/timetable/versions/{id}/publish": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Publish a draft version",
                "description": "Atomically supersedes the currently published version of the scope and promotes the draft.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PublishTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Version not found"},
                    "409": {"description": "Version is not a draft or belongs to a different scope"}
                }
            }
        },
        "/timetable/versions/{id}/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export a version as CSV",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/ExportTimetableRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Version not found or exports disabled"}
                }
            }
        },
        "/timetable/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download an exported file",
                "description": "The signed token in the query string carries the grant; no session is required.",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        },
        "/timetable/conflicts/detect": {
            "post": {
                "tags": ["Conflicts"],
                "summary": "Detect conflicts in submitted entries",
                "description": "Runs the detector over the posted entries without touching persisted versions.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DetectConflictsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scheduling/config": {
            "get": {
                "tags": ["Scheduling Config"],
                "summary": "Get the scheduling configuration of a school",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No configuration stored"}
                }
            },
            "put": {
                "tags": ["Scheduling Config"],
                "summary": "Upsert the scheduling configuration of a school",
                "description": "The full parameter set is validated by expanding it into a slot grid before it is stored.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateScheduleConfigRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Configuration cannot form a usable slot grid"}
                }
            }
        },
        "/scheduling/constraints/teacher-availability": {
            "get": {
                "tags": ["Constraints"],
                "summary": "List teacher availability windows",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "teacherId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Constraints"],
                "summary": "Upsert a teacher availability window",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TeacherAvailabilityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scheduling/constraints/room-availability": {
            "get": {
                "tags": ["Constraints"],
                "summary": "List room availability windows",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "roomId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Constraints"],
                "summary": "Upsert a room availability window",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RoomAvailabilityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scheduling/constraints/subject-requirements": {
            "get": {
                "tags": ["Constraints"],
                "summary": "List subject requirements",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Constraints"],
                "summary": "Upsert a subject requirement",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubjectRequirementRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "TimetableVersion": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "school_id": {"type": "string"},
                "academic_year": {"type": "string"},
                "term": {"type": "string"},
                "version": {"type": "integer"},
                "status": {"type": "string", "enum": ["DRAFT", "PUBLISHED", "SUPERSEDED", "DISCARDED"]},
                "algorithm": {"type": "string"},
                "duration_ms": {"type": "integer"},
                "conflict_count": {"type": "integer"},
                "optimization_score": {"type": "number"},
                "meta": {"type": "object"},
                "created_at": {"type": "string"},
                "published_at": {"type": "string"}
            }
        },
        "TimetableEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "version_id": {"type": "string"},
                "class_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "teacher_id": {"type": "string"},
                "room_id": {"type": "string"},
                "day_of_week": {"type": "string"},
                "period_number": {"type": "integer"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "is_double_period": {"type": "boolean"},
                "soft_score": {"type": "number"},
                "created_at": {"type": "string"}
            }
        },
        "TimetableConflict": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "version_id": {"type": "string"},
                "type": {"type": "string", "enum": ["TEACHER_DOUBLE_BOOKING", "ROOM_DOUBLE_BOOKING", "CLASS_DOUBLE_BOOKING", "CONSTRAINT_VIOLATION"]},
                "severity": {"type": "string", "enum": ["HIGH", "MEDIUM", "LOW"]},
                "day_of_week": {"type": "string"},
                "period_number": {"type": "integer"},
                "class_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "teacher_id": {"type": "string"},
                "room_id": {"type": "string"},
                "detail": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "schoolId": {"type": "string"},
                "academicYear": {"type": "string"},
                "term": {"type": "string"},
                "seed": {"type": "integer"},
                "maxBacktracks": {"type": "integer"}
            },
            "required": ["schoolId", "academicYear", "term"]
        },
        "PublishTimetableRequest": {
            "type": "object",
            "properties": {
                "schoolId": {"type": "string"},
                "academicYear": {"type": "string"},
                "term": {"type": "string"}
            },
            "required": ["schoolId", "academicYear", "term"]
        },
        "DetectConflictsRequest": {
            "type": "object",
            "properties": {
                "entries": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/EntryInput"}
                }
            },
            "required": ["entries"]
        },
        "EntryInput": {
            "type": "object",
            "properties": {
                "classId": {"type": "string"},
                "subjectId": {"type": "string"},
                "teacherId": {"type": "string"},
                "roomId": {"type": "string"},
                "dayOfWeek": {"type": "string"},
                "periodNumber": {"type": "integer"}
            },
            "required": ["classId", "subjectId", "teacherId", "dayOfWeek", "periodNumber"]
        },
        "ExportTimetableRequest": {
            "type": "object",
            "properties": {
                "format": {"type": "string", "enum": ["csv"]}
            }
        },
        "UpdateScheduleConfigRequest": {
            "type": "object",
            "properties": {
                "schoolId": {"type": "string"},
                "periodsPerDay": {"type": "integer"},
                "workingDays": {"type": "array", "items": {"type": "string"}},
                "periodDurationMinutes": {"type": "integer"},
                "breakPeriods": {"type": "array", "items": {"type": "integer"}},
                "maxPeriodsPerTeacherPerDay": {"type": "integer"},
                "minGapBetweenSameSubject": {"type": "integer"},
                "allowDoublePeriods": {"type": "boolean"},
                "preferMorningForCore": {"type": "boolean"},
                "weights": {"$ref": "#/definitions/WeightsRequest"}
            },
            "required": ["schoolId", "periodsPerDay", "workingDays", "periodDurationMinutes"]
        },
        "WeightsRequest": {
            "type": "object",
            "properties": {
                "conflicts": {"type": "number"},
                "preferences": {"type": "number"},
                "distribution": {"type": "number"},
                "workload": {"type": "number"}
            }
        },
        "TeacherAvailabilityRequest": {
            "type": "object",
            "properties": {
                "teacherId": {"type": "string"},
                "dayOfWeek": {"type": "string"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "kind": {"type": "string", "enum": ["AVAILABLE", "UNAVAILABLE", "PREFERRED"]},
                "weight": {"type": "number"}
            },
            "required": ["teacherId", "dayOfWeek", "startTime", "endTime", "kind"]
        },
        "RoomAvailabilityRequest": {
            "type": "object",
            "properties": {
                "roomId": {"type": "string"},
                "dayOfWeek": {"type": "string"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "kind": {"type": "string", "enum": ["AVAILABLE", "UNAVAILABLE", "PREFERRED"]},
                "weight": {"type": "number"}
            },
            "required": ["roomId", "dayOfWeek", "startTime", "endTime", "kind"]
        },
        "SubjectRequirementRequest": {
            "type": "object",
            "properties": {
                "subjectId": {"type": "string"},
                "requiresLab": {"type": "boolean"},
                "requiresComputerLab": {"type": "boolean"},
                "requiresDoublePeriod": {"type": "boolean"},
                "preferredTimeOfDay": {"type": "string", "enum": ["MORNING", "AFTERNOON", "ANY"]},
                "maxConsecutivePeriods": {"type": "integer"}
            },
            "required": ["subjectId"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
