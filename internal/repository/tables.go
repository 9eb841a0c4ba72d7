package repository

import "rollworks.io/erp/internal/domain"

var (
	rolesTable       = newTable[domain.Role](domain.TableRoles, false)
	permissionsTable = newTable[domain.Permission](domain.TablePermissions, false)
	usersTable       = newTable[domain.User](domain.TableUsers, false)

	customersTable        = newTable[domain.Customer](domain.TableCustomers, true)
	customerProductsTable = newTable[domain.CustomerProduct](domain.TableCustomerProducts, false)
	machinesTable         = newTable[domain.Machine](domain.TableMachines, true)

	ordersTable        = newTable[domain.Order](domain.TableOrders, false)
	jobOrdersTable     = newTable[domain.JobOrder](domain.TableJobOrders, false)
	rollsTable         = newTable[domain.Roll](domain.TableRolls, true)
	finalProductsTable = newTable[domain.FinalProduct](domain.TableFinalProducts, false)

	qualityCheckTypesTable = newTable[domain.QualityCheckType](domain.TableQualityCheckTypes, false)
	qualityChecksTable     = newTable[domain.QualityCheckRow](domain.TableQualityChecks, false)
	correctiveActionsTable = newTable[domain.CorrectiveAction](domain.TableCorrectiveActions, false)

	rawMaterialsTable = newTable[domain.RawMaterial](domain.TableRawMaterials, false)
	mixMaterialsTable = newTable[domain.MixMaterial](domain.TableMixMaterials, false)
	mixItemsTable     = newTable[domain.MixItem](domain.TableMixItems, false)
	mixMachinesTable  = newTable[domain.MixMachine](domain.TableMixMachines, false)

	timeAttendanceTable = newTable[domain.TimeAttendance](domain.TableTimeAttendance, false)
	leaveRequestsTable  = newTable[domain.LeaveRequest](domain.TableLeaveRequests, false)

	maintenanceRequestsTable = newTable[domain.MaintenanceRequest](domain.TableMaintenanceRequests, false)
	maintenanceActionsTable  = newTable[domain.MaintenanceAction](domain.TableMaintenanceActions, false)

	smsMessagesTable = newTable[domain.SMSMessage](domain.TableSMSMessages, false)

	iotSensorsTable     = newTable[domain.IoTSensor](domain.TableIoTSensors, true)
	sensorReadingsTable = newTable[domain.SensorReading](domain.TableSensorReadings, false)
	iotAlertsTable      = newTable[domain.IoTAlert](domain.TableIoTAlerts, false)
)

// AllTables lists every table in creation order.
var AllTables = []string{
	domain.TableRoles,
	domain.TablePermissions,
	domain.TableUsers,
	domain.TableCustomers,
	domain.TableCustomerProducts,
	domain.TableMachines,
	domain.TableOrders,
	domain.TableJobOrders,
	domain.TableRolls,
	domain.TableQualityCheckTypes,
	domain.TableQualityChecks,
	domain.TableCorrectiveActions,
	domain.TableFinalProducts,
	domain.TableSMSMessages,
	domain.TableRawMaterials,
	domain.TableMixMaterials,
	domain.TableMixItems,
	domain.TableMixMachines,
	domain.TableTimeAttendance,
	domain.TableLeaveRequests,
	domain.TableMaintenanceRequests,
	domain.TableMaintenanceActions,
	domain.TableIoTSensors,
	domain.TableSensorReadings,
	domain.TableIoTAlerts,
}
